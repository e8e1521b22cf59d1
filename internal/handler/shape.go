package handler

import (
	"fmt"
	"net/url"
	"time"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"

	"github.com/labstack/echo/v4"
)

// Wire identifier prefixes. Stored identifiers are untagged; the prefix is
// attached when a record is shaped for a response and stripped from inbound
// identifiers.
const (
	workspaceIDPrefix = "ws_"
	partnerIDPrefix   = "pn_"
	discountIDPrefix  = "disc_"
	programIDPrefix   = "prog_"
)

// workspaceResponse is the wire shape of a workspace
type workspaceResponse struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Logo              *string          `json:"logo"`
	Plan              string           `json:"plan"`
	ConversionEnabled bool             `json:"conversionEnabled"`
	AllowedHostnames  []string         `json:"allowedHostnames"`
	DefaultFolderID   *string          `json:"defaultFolderId"`
	PartnersEnabled   bool             `json:"partnersEnabled"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	Role              string           `json:"role,omitempty"`
	Domains           []domainResponse `json:"domains"`
	Flags             map[string]bool  `json:"flags,omitempty"`
	UsageReport       *usageResponse   `json:"usage,omitempty"`
}

// domainResponse is the wire shape of a domain attached to a workspace
type domainResponse struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// usageResponse is the wire shape of a workspace usage report
type usageResponse struct {
	Links       int64     `json:"links"`
	Clicks      int64     `json:"clicks"`
	PeriodStart time.Time `json:"periodStart"`
}

// partnerResponse is the wire shape of a partner
type partnerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// discountResponse is the wire shape of a discount with its eligible partners
type discountResponse struct {
	ID                string            `json:"id"`
	Amount            int64             `json:"amount"`
	Type              string            `json:"type"`
	MaxDurationMonths *int              `json:"maxDurationMonths"`
	Partners          []partnerResponse `json:"partners"`
}

// shapeWorkspace maps a persisted workspace into the wire schema, tagging the
// identifiers with their type prefixes
func shapeWorkspace(w *model.Workspace, role string, domains []model.Domain, flagSet map[string]bool, report *model.UsageReport) workspaceResponse {
	shapedDomains := make([]domainResponse, 0, len(domains))
	for _, d := range domains {
		shapedDomains = append(shapedDomains, domainResponse{
			ID:       d.ID,
			Slug:     d.Slug,
			Primary:  d.IsPrimary,
			Verified: d.Verified,
		})
	}

	resp := workspaceResponse{
		ID:                model.TagID(workspaceIDPrefix, w.ID),
		Name:              w.Name,
		Slug:              w.Slug,
		Logo:              w.Logo,
		Plan:              w.Plan,
		ConversionEnabled: w.ConversionEnabled,
		AllowedHostnames:  w.AllowedHostnames,
		DefaultFolderID:   w.DefaultFolderID,
		PartnersEnabled:   w.PartnersEnabled,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
		Role:              role,
		Domains:           shapedDomains,
		Flags:             flagSet,
	}
	if resp.AllowedHostnames == nil {
		resp.AllowedHostnames = []string{}
	}
	if report != nil {
		resp.UsageReport = &usageResponse{
			Links:       report.Links,
			Clicks:      report.Clicks,
			PeriodStart: report.PeriodStart,
		}
	}
	return resp
}

// shapePartner maps a partner into the wire schema. A partner without a
// stored image gets a generated avatar keyed by name.
func shapePartner(p *model.Partner) partnerResponse {
	image := ""
	if p.Image != nil {
		image = *p.Image
	}
	if image == "" {
		image = avatarURL(p.Name)
	}
	return partnerResponse{
		ID:        model.TagID(partnerIDPrefix, p.ID),
		Name:      p.Name,
		Email:     p.Email,
		Image:     image,
		CreatedAt: p.CreatedAt,
	}
}

// shapeDiscount maps a discount and its eligible partners into the wire schema
func shapeDiscount(d *model.Discount, partners []model.Partner) discountResponse {
	shaped := make([]partnerResponse, 0, len(partners))
	for i := range partners {
		shaped = append(shaped, shapePartner(&partners[i]))
	}
	return discountResponse{
		ID:                model.TagID(discountIDPrefix, d.ID),
		Amount:            d.Amount,
		Type:              d.Type,
		MaxDurationMonths: d.MaxDurationMonths,
		Partners:          shaped,
	}
}

// avatarURL returns the generated avatar for a display name
func avatarURL(name string) string {
	return fmt.Sprintf("https://api.dicebear.com/9.x/micah/svg?seed=%s", url.QueryEscape(name))
}

// workspaceFromContext reads the workspace and member role resolved by the
// workspace middleware
func workspaceFromContext(c echo.Context) (*model.Workspace, string, error) {
	w, ok := c.Get("workspace").(*model.Workspace)
	if !ok {
		return nil, "", apierror.Internal()
	}
	role, _ := c.Get("workspace_role").(string)
	return w, role, nil
}

// userFromContext reads the authenticated user id set by the auth middleware
func userFromContext(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", apierror.Unauthorized("Authentication required.")
	}
	return userID, nil
}
