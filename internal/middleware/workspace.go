package middleware

import (
	"errors"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkspaceMiddleware resolves the {idOrSlug} path parameter to a workspace
// the authenticated user is a member of, and stores the workspace and the
// member's role on the context. A workspace the user does not belong to is
// reported as not found, so membership stays invisible to outsiders.
func WorkspaceMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		userID, ok := c.Get("user_id").(string)
		if !ok || userID == "" {
			return apierror.Respond(c, apierror.Unauthorized("Authentication required."))
		}

		idOrSlug := c.Param("idOrSlug")
		if idOrSlug == "" {
			return apierror.Respond(c, apierror.BadRequest("Missing workspace id or slug."))
		}

		// Accept ws_-tagged ids, raw ids and slugs
		id := model.TrimIDPrefix("ws_", idOrSlug)

		db := database.GetDB()
		var workspace model.Workspace
		err := db.Where("id = ? OR slug = ?", id, idOrSlug).First(&workspace).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Respond(c, apierror.NotFound("Workspace not found."))
		}
		if err != nil {
			log.Error("Failed to resolve workspace", zap.String("id_or_slug", idOrSlug), zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}

		var member model.WorkspaceUser
		err = db.Where("workspace_id = ? AND user_id = ?", workspace.ID, userID).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Respond(c, apierror.NotFound("Workspace not found."))
		}
		if err != nil {
			log.Error("Failed to load workspace membership",
				zap.String("workspace_id", workspace.ID), zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}

		// Store workspace context for the handler
		c.Set("workspace", &workspace)
		c.Set("workspace_role", member.Role)

		// Add workspace info to logger
		log = log.With(
			zap.String("workspace_id", workspace.ID),
			zap.String("workspace_slug", workspace.Slug),
		)
		c.Set("logger", log)

		return next(c)
	}
}

// RequireOwner ensures the acting member holds the owner role. It must run
// after WorkspaceMiddleware.
func RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("workspace_role").(string)
		if role != model.RoleOwner {
			return apierror.Respond(c, apierror.Forbidden("Only workspace owners can perform this action."))
		}
		return next(c)
	}
}
