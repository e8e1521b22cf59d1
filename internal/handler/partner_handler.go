package handler

import (
	"errors"
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

// maxPartnerPage caps directory search results to a single page
const maxPartnerPage = 100

// SearchPartners returns one page of directory partners matching the search
// term on name or email, newest first
func SearchPartners(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.PartnerSearchCounter.Inc()

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Order("created_at DESC").Limit(maxPartnerPage)
	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var partners []model.Partner
	if result := query.Find(&partners); result.Error != nil {
		log.Error("Failed to search partners", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	response := make([]partnerResponse, 0, len(partners))
	for i := range partners {
		response = append(response, shapePartner(&partners[i]))
	}

	return c.JSON(http.StatusOK, response)
}

// CreatePartner registers a new partner in the directory
func CreatePartner(c echo.Context) error {
	log := logger.FromContext(c)

	// Parse request
	var req struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Image *string `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse partner request", zap.Error(err))
		return apierror.Respond(c, apierror.BadRequest("Invalid request body."))
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return apierror.Respond(c, apierror.Unprocessable("Name and email are required."))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	partner := model.Partner{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	}
	if result := database.GetDB().Create(&partner); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apierror.Respond(c, apierror.Conflict("A partner with this email already exists."))
		}
		log.Error("Failed to create partner", zap.Error(result.Error))
		return apierror.Respond(c, apierror.Internal())
	}

	log.Info("Partner created",
		zap.String("partner_id", partner.ID),
		zap.String("email", partner.Email))

	return c.JSON(http.StatusCreated, shapePartner(&partner))
}
