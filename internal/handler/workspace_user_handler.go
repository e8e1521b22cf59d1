package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/logger"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memberResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AddWorkspaceUser adds a user to the workspace, or updates the role of an
// existing member. Restricted to workspace owners by the route middleware.
func AddWorkspaceUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("add_user")

	workspace, _, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Parse request
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse member request", zap.Error(err))
		return apierror.Respond(c, apierror.BadRequest("Invalid request body."))
	}

	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if req.Role != model.RoleOwner && req.Role != model.RoleMember {
		return apierror.Respond(c, apierror.Unprocessable("Role must be either owner or member."))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	db := database.GetDB()

	// Find the user to add
	var user model.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Respond(c, apierror.NotFound("User not found."))
		}
		log.Error("Failed to look up user", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// An existing member gets a role update instead of a duplicate row
	var member model.WorkspaceUser
	err = db.Where("workspace_id = ? AND user_id = ?", workspace.ID, user.ID).
		First(&member).Error
	switch {
	case err == nil:
		if member.Role != req.Role {
			if err := db.Model(&member).Update("role", req.Role).Error; err != nil {
				log.Error("Failed to update member role", zap.Error(err))
				return apierror.Respond(c, apierror.Internal())
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		member = model.WorkspaceUser{
			WorkspaceID: workspace.ID,
			UserID:      user.ID,
			Role:        req.Role,
		}
		if err := db.Create(&member).Error; err != nil {
			log.Error("Failed to create workspace membership", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	default:
		log.Error("Failed to look up membership", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	log.Info("User added to workspace",
		zap.String("workspace_id", workspace.ID),
		zap.String("user_id", user.ID),
		zap.String("role", req.Role))

	return c.JSON(http.StatusOK, memberResponse{
		UserID: user.ID,
		Email:  user.Email,
		Role:   req.Role,
	})
}

// RemoveWorkspaceUser removes a member from the workspace. The owner cannot
// be removed; a removed member whose default workspace pointed here gets
// repointed at another of their workspaces, or cleared.
func RemoveWorkspaceUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("remove_user")

	workspace, _, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	targetID := c.Param("userId")

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	db := database.GetDB()

	var member model.WorkspaceUser
	if err := db.Where("workspace_id = ? AND user_id = ?", workspace.ID, targetID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Respond(c, apierror.NotFound("User is not a member of this workspace."))
		}
		log.Error("Failed to look up membership", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	if member.Role == model.RoleOwner {
		return apierror.Respond(c, apierror.Forbidden("The workspace owner cannot be removed."))
	}

	// Begin transaction
	tx := db.Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	if err := tx.Delete(&member).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to remove workspace membership", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// Repoint the removed user's default workspace when it named this one
	var user model.User
	if err := tx.Where("id = ?", targetID).First(&user).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to look up removed user", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	if user.DefaultWorkspace != nil && *user.DefaultWorkspace == workspace.Slug {
		var next model.WorkspaceUser
		err := tx.Preload("Workspace").Where("user_id = ?", targetID).
			Order("created_at ASC").First(&next).Error
		switch {
		case err == nil && next.Workspace.ID != "":
			err = tx.Model(&user).Update("default_workspace", next.Workspace.Slug).Error
		case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Model(&user).Update("default_workspace", nil).Error
		}
		if err != nil {
			tx.Rollback()
			log.Error("Failed to repoint default workspace", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	log.Info("User removed from workspace",
		zap.String("workspace_id", workspace.ID),
		zap.String("user_id", targetID))

	return c.JSON(http.StatusOK, map[string]string{
		"message": "User removed from workspace",
	})
}
