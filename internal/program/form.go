package program

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldKind tags an application form field. The set is closed; shaping an
// unknown kind is an error, never a silent gap.
type FieldKind string

const (
	KindShortText         FieldKind = "short-text"
	KindLongText          FieldKind = "long-text"
	KindSelect            FieldKind = "select"
	KindMultipleChoice    FieldKind = "multiple-choice"
	KindWebsiteAndSocials FieldKind = "website-and-socials"
)

// Field is one entry of a program's application form definition
type Field struct {
	ID       string    `json:"id"`
	Kind     FieldKind `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Multiple bool      `json:"multiple,omitempty"` // multiple-choice only
	Options  []string  `json:"options,omitempty"`  // select and multiple-choice only
	Items    []SubItem `json:"items,omitempty"`    // website-and-socials only
}

// SubItem is one input of a website-and-socials field
type SubItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FieldData is a field augmented with its empty value slot
type FieldData struct {
	Field
	Value interface{} `json:"value"`
}

// SubItemValue carries the value slot for one website-and-socials input
type SubItemValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// BuildFormData maps a form definition to the same list augmented with a
// per-kind empty value: string kinds get "", multiple-choice gets [] when
// multi-select, website-and-socials gets one empty slot per declared input.
func BuildFormData(fields []Field) ([]FieldData, error) {
	data := make([]FieldData, 0, len(fields))
	for _, f := range fields {
		var value interface{}
		switch f.Kind {
		case KindShortText, KindLongText, KindSelect:
			value = ""
		case KindMultipleChoice:
			if f.Multiple {
				value = []string{}
			} else {
				value = ""
			}
		case KindWebsiteAndSocials:
			slots := make([]SubItemValue, 0, len(f.Items))
			for _, item := range f.Items {
				slots = append(slots, SubItemValue{ID: item.ID, Value: ""})
			}
			value = slots
		default:
			return nil, fmt.Errorf("unknown field kind %q", f.Kind)
		}
		data = append(data, FieldData{Field: f, Value: value})
	}
	return data, nil
}

// ParseFields decodes a stored application form definition. An empty
// definition parses to no fields.
func ParseFields(raw string) ([]Field, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var fields []Field
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid application form definition: %w", err)
	}
	return fields, nil
}
