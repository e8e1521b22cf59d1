package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"
	"github.com/code/app-dub-agpl/internal/program"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/logger"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type applicationFormResponse struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Fields []program.FieldData `json:"fields"`
}

// GetProgramApplicationForm returns the program's application form with a
// per-kind empty value attached to every declared field
func GetProgramApplicationForm(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("get_application_form")

	workspace, _, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	id := model.TrimIDPrefix(programIDPrefix, c.Param("programId"))
	var prog model.Program
	if err := database.GetDB().
		Where("id = ? AND workspace_id = ?", id, workspace.ID).
		First(&prog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Respond(c, apierror.NotFound("Program not found."))
		}
		log.Error("Failed to look up program", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// A stored form that no longer parses or declares an unknown field kind
	// is a data fault, not a caller error
	fields, err := program.ParseFields(prog.ApplicationForm)
	if err != nil {
		log.Error("Failed to parse stored application form",
			zap.String("program_id", prog.ID), zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	formData, err := program.BuildFormData(fields)
	if err != nil {
		log.Error("Failed to shape application form",
			zap.String("program_id", prog.ID), zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	return c.JSON(http.StatusOK, applicationFormResponse{
		ID:     model.TagID(programIDPrefix, prog.ID),
		Name:   prog.Name,
		Fields: formData,
	})
}
