package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
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

// findWorkspaceDiscount loads a discount scoped to the workspace. Discounts
// of other workspaces are indistinguishable from missing ones.
func findWorkspaceDiscount(db *gorm.DB, workspaceID, rawID string) (*model.Discount, error) {
	id := model.TrimIDPrefix(discountIDPrefix, rawID)
	var discount model.Discount
	err := db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Discount not found.")
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// eligiblePartners returns the partner records currently attached to a
// discount, oldest attachment first
func eligiblePartners(db *gorm.DB, discountID string) ([]model.Partner, error) {
	var rows []model.DiscountPartner
	if err := db.Preload("Partner").Where("discount_id = ?", discountID).
		Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	partners := make([]model.Partner, 0, len(rows))
	for i := range rows {
		if rows[i].Partner.ID == "" {
			// Partner removed from the directory since attachment
			continue
		}
		partners = append(partners, rows[i].Partner)
	}
	return partners, nil
}

// GetDiscount retrieves a workspace discount with its eligible partners
func GetDiscount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("get_discount")

	workspace, _, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := database.GetDB()
	discount, err := findWorkspaceDiscount(db, workspace.ID, c.Param("discountId"))
	if err != nil {
		if apierror.IsCode(err, apierror.CodeNotFound) {
			return apierror.Respond(c, err)
		}
		log.Error("Failed to look up discount", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	partners, err := eligiblePartners(db, discount.ID)
	if err != nil {
		log.Error("Failed to load eligible partners", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	return c.JSON(http.StatusOK, shapeDiscount(discount, partners))
}

// UpdateDiscountPartners replaces the set of partners eligible for a
// discount. Restricted to workspace owners by the route middleware.
func UpdateDiscountPartners(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordWorkspaceOperation("set_discount_partners")

	workspace, _, err := workspaceFromContext(c)
	if err != nil {
		log.Error("Workspace missing from context")
		return apierror.Respond(c, err)
	}

	// Parse request
	var req struct {
		PartnerIDs []string `json:"partnerIds"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse eligibility request", zap.Error(err))
		return apierror.Respond(c, apierror.BadRequest("Invalid request body."))
	}

	// Normalize to a deduplicated, untagged id list preserving order
	seen := make(map[string]bool, len(req.PartnerIDs))
	ids := make([]string, 0, len(req.PartnerIDs))
	for _, raw := range req.PartnerIDs {
		id := model.TrimIDPrefix(partnerIDPrefix, strings.TrimSpace(raw))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	db := database.GetDB()
	discount, err := findWorkspaceDiscount(db, workspace.ID, c.Param("discountId"))
	if err != nil {
		if apierror.IsCode(err, apierror.CodeNotFound) {
			return apierror.Respond(c, err)
		}
		log.Error("Failed to look up discount", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	// Every referenced partner must exist in the directory
	if len(ids) > 0 {
		var found []string
		if err := db.Model(&model.Partner{}).Where("id IN ?", ids).
			Pluck("id", &found).Error; err != nil {
			log.Error("Failed to verify partner ids", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
		if len(found) != len(ids) {
			known := make(map[string]bool, len(found))
			for _, id := range found {
				known[id] = true
			}
			var missing []string
			for _, id := range ids {
				if !known[id] {
					missing = append(missing, model.TagID(partnerIDPrefix, id))
				}
			}
			return apierror.Respond(c, apierror.Unprocessable(
				fmt.Sprintf("Unknown partner ids: %s.", strings.Join(missing, ", "))))
		}
	}

	// Begin transaction
	tx := db.Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	// Replace the join rows wholesale
	if err := tx.Where("discount_id = ?", discount.ID).
		Delete(&model.DiscountPartner{}).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to clear eligible partners", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}
	for _, id := range ids {
		row := model.DiscountPartner{DiscountID: discount.ID, PartnerID: id}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to attach partner",
				zap.String("partner_id", id), zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return apierror.Respond(c, apierror.Internal())
	}

	log.Info("Discount eligibility updated",
		zap.String("workspace_id", workspace.ID),
		zap.String("discount_id", discount.ID),
		zap.Int("partners", len(ids)))

	// Shape the response in the requested order
	partners := make([]model.Partner, 0, len(ids))
	if len(ids) > 0 {
		var records []model.Partner
		if err := db.Where("id IN ?", ids).Find(&records).Error; err != nil {
			log.Error("Failed to load eligible partners", zap.Error(err))
			return apierror.Respond(c, apierror.Internal())
		}
		byID := make(map[string]*model.Partner, len(records))
		for i := range records {
			byID[records[i].ID] = &records[i]
		}
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				partners = append(partners, *p)
			}
		}
	}

	return c.JSON(http.StatusOK, shapeDiscount(discount, partners))
}
