package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/assets"
	"github.com/code/app-dub-agpl/internal/flags"
	"github.com/code/app-dub-agpl/internal/folder"
	"github.com/code/app-dub-agpl/internal/hostname"
	"github.com/code/app-dub-agpl/internal/model"
	"github.com/code/app-dub-agpl/internal/slug"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/logger"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// maxDomains caps the domain list attached to a workspace response
const maxDomains = 100

// Workspace name length bounds
const (
	minNameLength = 1
	maxNameLength = 32
)

// CreateWorkspace handles workspace creation
func CreateWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("create")

	// Get user ID from context (set by AuthMiddleware)
	userID, err := userFromContext(c)
	if err != nil {
		log.Error("Failed to get user ID from context")
		return apierror.Respond(c, err)
	}

	// Parse request
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse workspace creation request", zap.Error(err))
		return apierror.Respond(c, apierror.BadRequest("Invalid request body."))
	}

	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return apierror.Respond(c, apierror.Unprocessable(
			fmt.Sprintf("Name must be between %d and %d characters.", minNameLength, maxNameLength)))
	}

	validatedSlug, err := slug.Validate(c.Request().Context(), slugChecker, req.Slug)
	if err != nil {
		if apierror.IsCode(err, apierror.CodeUnprocessable) {
			return apierror.Respond(c, err)
		}
		log.Error("Reserved slug lookup failed", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Begin transaction
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Create workspace
	workspace := model.Workspace{
		Name: name,
		Slug: validatedSlug,
		Plan: model.PlanFree,
	}
	if result := tx.Create(&workspace); result.Error != nil {
		tx.Rollback()
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apierror.Respond(c, apierror.Conflict("A workspace with this slug already exists."))
		}
		log.Error("Failed to create workspace", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Also create the owner membership
	member := model.WorkspaceUser{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Role:        model.RoleOwner,
	}
	if result := tx.Create(&member); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create workspace membership", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Point the creator's default workspace at the new slug if unset
	if result := tx.Model(&model.User{}).
		Where("id = ? AND default_workspace IS NULL", userID).
		Update("default_workspace", workspace.Slug); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to update user's default workspace", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	log.Info("Workspace created",
		zap.String("workspace_id", workspace.ID),
		zap.String("slug", workspace.Slug),
		zap.String("owner_id", userID))

	flagSet := flags.Compute(c.Request().Context(), flagStore, &workspace)
	return c.JSON(http.StatusCreated, shapeWorkspace(&workspace, model.RoleOwner, nil, flagSet, nil))
}

// ListWorkspaces retrieves all workspaces the authenticated user belongs to
func ListWorkspaces(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("list")

	// Get user ID from context (set by AuthMiddleware)
	userID, err := userFromContext(c)
	if err != nil {
		log.Error("Failed to get user ID from context")
		return apierror.Respond(c, err)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var memberships []model.WorkspaceUser
	if result := database.GetDB().Preload("Workspace").
		Where("user_id = ?", userID).Find(&memberships); result.Error != nil {
		log.Error("Failed to retrieve user's workspaces", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	response := make([]workspaceResponse, 0, len(memberships))
	for i := range memberships {
		m := &memberships[i]
		if m.Workspace.ID == "" {
			// Membership row pointing at a removed workspace
			continue
		}
		response = append(response, shapeWorkspace(&m.Workspace, m.Role, nil, nil, nil))
	}

	return c.JSON(http.StatusOK, response)
}

// GetWorkspace retrieves one workspace with its domains, the caller's role,
// feature flags and the usage report when one exists
func GetWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("get")

	workspace, role, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := database.GetDB()
	ctx := c.Request().Context()

	// Domains and the usage report row are independent reads, fetched
	// concurrently
	var (
		domains []model.Domain
		report  *model.UsageReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).
			Where("workspace_id = ?", workspace.ID).
			Order("is_primary DESC, slug ASC").
			Limit(maxDomains).
			Find(&domains).Error
	})
	g.Go(func() error {
		var r model.UsageReport
		err := db.WithContext(gctx).Where("workspace_id = ?", workspace.ID).First(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		report = &r
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("Failed to load workspace details", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	flagSet := flags.Compute(ctx, flagStore, workspace)
	return c.JSON(http.StatusOK, shapeWorkspace(workspace, role, domains, flagSet, report))
}

// updateWorkspaceRequest is the update body. Pointer fields distinguish
// absent from zero: absent fields stay untouched, except defaultFolderId
// which is always written so that leaving it out clears the default.
type updateWorkspaceRequest struct {
	Name              *string   `json:"name"`
	Slug              *string   `json:"slug"`
	Logo              *string   `json:"logo"`
	ConversionEnabled *bool     `json:"conversionEnabled"`
	AllowedHostnames  *[]string `json:"allowedHostnames"`
	DefaultFolderID   *string   `json:"defaultFolderId"`
}

// UpdateWorkspace handles the workspace update flow: plan gate, hostname and
// slug validation, logo upload, folder access check, the persisted partial
// update, the default-workspace rename cascade and old-logo cleanup.
func UpdateWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("update")

	workspace, role, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}
	userID, err := userFromContext(c)
	if err != nil {
		log.Error("Failed to get user ID from context")
		return apierror.Respond(c, err)
	}

	// Parse request
	var req updateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse workspace update request", zap.Error(err))
		return apierror.Respond(c, apierror.BadRequest("Invalid request body."))
	}

	ctx := c.Request().Context()

	// Conversion tracking is gated on the plan tier; reject before any
	// mutation
	if req.ConversionEnabled != nil && *req.ConversionEnabled &&
		!workspace.PlanAtLeast(model.PlanBusiness) {
		return apierror.Respond(c, apierror.Forbidden(
			"Conversion tracking requires a Business plan or higher."))
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
			return apierror.Respond(c, apierror.Unprocessable(
				fmt.Sprintf("Name must be between %d and %d characters.", minNameLength, maxNameLength)))
		}
		req.Name = &name
	}

	var validatedSlug string
	if req.Slug != nil {
		validatedSlug, err = slug.Validate(ctx, slugChecker, *req.Slug)
		if err != nil {
			if apierror.IsCode(err, apierror.CodeUnprocessable) {
				return apierror.Respond(c, err)
			}
			log.Error("Reserved slug lookup failed", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	var validatedHostnames []string
	if req.AllowedHostnames != nil {
		validatedHostnames, err = hostname.ValidateList(*req.AllowedHostnames)
		if err != nil {
			return apierror.Respond(c, err)
		}
	}

	db := database.GetDB()

	// A non-empty default folder must be writable by the acting user
	if req.DefaultFolderID != nil && *req.DefaultFolderID != "" {
		if err := folder.VerifyAccess(db, workspace.ID, userID, *req.DefaultFolderID, folder.PermWrite); err != nil {
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) {
				return apierror.Respond(c, apiErr)
			}
			log.Error("Failed to verify folder access", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	// Upload the new logo before touching the database; a failed upload
	// aborts the whole request
	var uploadedLogo *string
	oldLogoKey := ""
	if req.Logo != nil {
		key := fmt.Sprintf("workspaces/%s/logo_%s",
			model.TagID(workspaceIDPrefix, workspace.ID), model.NewID())
		result, err := assetStore.Upload(ctx, key, *req.Logo)
		if err != nil {
			log.Error("Failed to upload workspace logo", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
		uploadedLogo = &result.URL
		if workspace.Logo != nil {
			oldLogoKey = assetStore.KeyFromURL(*workspace.Logo)
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	// Begin transaction
	tx := db.Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Persist all provided fields in a single update. default_folder_id is
	// always written: an absent or empty value clears the default.
	updated := *workspace
	columns := []string{"default_folder_id"}
	if req.DefaultFolderID != nil && *req.DefaultFolderID != "" {
		updated.DefaultFolderID = req.DefaultFolderID
	} else {
		updated.DefaultFolderID = nil
	}
	if req.Name != nil {
		updated.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Slug != nil {
		updated.Slug = validatedSlug
		columns = append(columns, "slug")
	}
	if uploadedLogo != nil {
		updated.Logo = uploadedLogo
		columns = append(columns, "logo")
	}
	if req.ConversionEnabled != nil {
		updated.ConversionEnabled = *req.ConversionEnabled
		columns = append(columns, "conversion_enabled")
	}
	if req.AllowedHostnames != nil {
		updated.AllowedHostnames = validatedHostnames
		columns = append(columns, "allowed_hostnames")
	}

	result := tx.Model(&model.Workspace{}).
		Where("id = ?", workspace.ID).
		Select(columns).
		Updates(&updated)
	if result.Error != nil {
		tx.Rollback()
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apierror.Respond(c, apierror.Conflict("A workspace with this slug already exists."))
		}
		log.Error("Failed to update workspace", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// A slug rename repoints every user whose default workspace named the
	// old slug, within the same transaction
	if req.Slug != nil && validatedSlug != workspace.Slug {
		if err := tx.Model(&model.User{}).
			Where("default_workspace = ?", workspace.Slug).
			Update("default_workspace", validatedSlug).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to cascade slug rename", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// The replaced logo is removed in the background; a publish failure is
	// logged and never surfaced to the caller
	if uploadedLogo != nil && oldLogoKey != "" {
		if err := cleanupQueue.Enqueue(ctx, assets.Task{
			WorkspaceID: workspace.ID,
			Key:         oldLogoKey,
		}); err != nil {
			log.Error("Failed to queue logo cleanup",
				zap.String("key", oldLogoKey), zap.Error(err))
		}
	}

	log.Info("Workspace updated",
		zap.String("workspace_id", workspace.ID),
		zap.Strings("fields", columns))

	// Reload and shape the updated record with fresh flags
	var fresh model.Workspace
	if err := db.First(&fresh, "id = ?", workspace.ID).Error; err != nil {
		log.Error("Failed to reload workspace", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	var domains []model.Domain
	if err := db.Where("workspace_id = ?", fresh.ID).
		Order("is_primary DESC, slug ASC").Limit(maxDomains).
		Find(&domains).Error; err != nil {
		log.Error("Failed to load workspace domains", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	flagSet := flags.Compute(ctx, flagStore, &fresh)
	return c.JSON(http.StatusOK, shapeWorkspace(&fresh, role, domains, flagSet, nil))
}

// DeleteWorkspace removes a workspace and everything attached to it, returns
// the pre-deletion snapshot and queues the stored logo for asset cleanup
func DeleteWorkspace(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("delete")

	workspace, role, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	db := database.GetDB()

	// Snapshot the domain list before anything is removed
	var domains []model.Domain
	if err := db.Where("workspace_id = ?", workspace.ID).
		Order("is_primary DESC, slug ASC").Limit(maxDomains).
		Find(&domains).Error; err != nil {
		log.Error("Failed to load workspace domains", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	var folderIDs []string
	if err := db.Model(&model.Folder{}).Where("workspace_id = ?", workspace.ID).
		Pluck("id", &folderIDs).Error; err != nil {
		log.Error("Failed to load workspace folders", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	var discountIDs []string
	if err := db.Model(&model.Discount{}).Where("workspace_id = ?", workspace.ID).
		Pluck("id", &discountIDs).Error; err != nil {
		log.Error("Failed to load workspace discounts", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// Begin transaction
	tx := db.Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"folder members", func() error {
			if len(folderIDs) == 0 {
				return nil
			}
			return tx.Where("folder_id IN ?", folderIDs).Delete(&model.FolderUser{}).Error
		}},
		{"folders", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.Folder{}).Error
		}},
		{"domains", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.Domain{}).Error
		}},
		{"discount partners", func() error {
			if len(discountIDs) == 0 {
				return nil
			}
			return tx.Where("discount_id IN ?", discountIDs).Delete(&model.DiscountPartner{}).Error
		}},
		{"discounts", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.Discount{}).Error
		}},
		{"programs", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.Program{}).Error
		}},
		{"usage report", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.UsageReport{}).Error
		}},
		{"default workspace pointers", func() error {
			return tx.Model(&model.User{}).
				Where("default_workspace = ?", workspace.Slug).
				Update("default_workspace", nil).Error
		}},
		{"memberships", func() error {
			return tx.Where("workspace_id = ?", workspace.ID).Delete(&model.WorkspaceUser{}).Error
		}},
		{"workspace", func() error {
			return tx.Where("id = ?", workspace.ID).Delete(&model.Workspace{}).Error
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			tx.Rollback()
			log.Error("Failed to delete "+step.name,
				zap.String("workspace_id", workspace.ID), zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// A stored logo is queued for cleanup once the deletion is committed
	if workspace.Logo != nil {
		if key := assetStore.KeyFromURL(*workspace.Logo); key != "" {
			if err := cleanupQueue.Enqueue(c.Request().Context(), assets.Task{
				WorkspaceID: workspace.ID,
				Key:         key,
			}); err != nil {
				log.Error("Failed to queue logo cleanup",
					zap.String("key", key), zap.Error(err))
			}
		}
	}

	log.Info("Workspace deleted",
		zap.String("workspace_id", workspace.ID),
		zap.String("slug", workspace.Slug))

	return c.JSON(http.StatusOK, shapeWorkspace(workspace, role, domains, nil, nil))
}
