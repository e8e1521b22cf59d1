package program

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFormDataStringKinds(t *testing.T) {
	fields := []Field{
		{ID: "f1", Kind: KindShortText, Label: "Company"},
		{ID: "f2", Kind: KindLongText, Label: "Pitch"},
		{ID: "f3", Kind: KindSelect, Label: "Region", Options: []string{"EU", "US"}},
	}

	data, err := BuildFormData(fields)
	require.NoError(t, err)
	require.Len(t, data, 3)
	for i, d := range data {
		assert.Equal(t, fields[i].ID, d.ID)
		assert.Equal(t, "", d.Value)
	}
}

func TestBuildFormDataMultipleChoice(t *testing.T) {
	multi := Field{ID: "f1", Kind: KindMultipleChoice, Multiple: true, Options: []string{"a", "b"}}
	single := Field{ID: "f2", Kind: KindMultipleChoice, Multiple: false, Options: []string{"a", "b"}}

	data, err := BuildFormData([]Field{multi, single})
	require.NoError(t, err)

	assert.Equal(t, []string{}, data[0].Value)
	assert.Equal(t, "", data[1].Value)
}

func TestBuildFormDataWebsiteAndSocials(t *testing.T) {
	field := Field{
		ID:   "f1",
		Kind: KindWebsiteAndSocials,
		Items: []SubItem{
			{ID: "website", Label: "Website"},
			{ID: "youtube", Label: "YouTube"},
		},
	}

	data, err := BuildFormData([]Field{field})
	require.NoError(t, err)

	assert.Equal(t, []SubItemValue{
		{ID: "website", Value: ""},
		{ID: "youtube", Value: ""},
	}, data[0].Value)
}

func TestBuildFormDataUnknownKindFailsFast(t *testing.T) {
	_, err := BuildFormData([]Field{{ID: "f1", Kind: "checkbox"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field kind")
	assert.Contains(t, err.Error(), "checkbox")
}

func TestBuildFormDataKeepsFieldOrder(t *testing.T) {
	fields := []Field{
		{ID: "b", Kind: KindShortText},
		{ID: "a", Kind: KindLongText},
		{ID: "c", Kind: KindMultipleChoice, Multiple: true},
	}

	data, err := BuildFormData(fields)
	require.NoError(t, err)

	ids := make([]string, len(data))
	for i, d := range data {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestParseFields(t *testing.T) {
	raw := `[{"id":"f1","type":"short-text","label":"Company","required":true}]`

	fields, err := ParseFields(raw)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, KindShortText, fields[0].Kind)
	assert.True(t, fields[0].Required)
}

func TestParseFieldsEmptyDefinition(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		fields, err := ParseFields(raw)
		require.NoError(t, err)
		assert.Nil(t, fields)
	}
}

func TestParseFieldsRejectsMalformedJSON(t *testing.T) {
	_, err := ParseFields("{not json")
	assert.Error(t, err)
}

func TestFieldDataSerializesValueInline(t *testing.T) {
	data, err := BuildFormData([]Field{{ID: "f1", Kind: KindMultipleChoice, Multiple: true}})
	require.NoError(t, err)

	raw, err := json.Marshal(data[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"f1","type":"multiple-choice","label":"","required":false,"multiple":true,"value":[]}`, string(raw))
}
