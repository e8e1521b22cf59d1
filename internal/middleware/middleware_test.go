package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/code/app-dub-agpl/internal/model"
	"github.com/code/app-dub-agpl/pkg/config"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/jwtutil"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	prometheus.InitMetrics(cfg)
	jwtutil.Initialize(&cfg.JWT)
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Workspace{}, &model.WorkspaceUser{}))
	database.SetDB(db)
	return db
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// probe returns a handler that records whether the chain reached it
func probe(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

func seedMembership(t *testing.T, db *gorm.DB, slug, userID, role string) *model.Workspace {
	t.Helper()
	w := model.Workspace{Name: slug, Slug: slug, Plan: model.PlanFree}
	require.NoError(t, db.Create(&w).Error)
	require.NoError(t, db.Create(&model.WorkspaceUser{WorkspaceID: w.ID, UserID: userID, Role: role}).Error)
	return &w
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	called := false
	c, rec := newContext("/api/workspaces")

	require.NoError(t, AuthMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), `"unauthorized"`)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	called := false
	c, rec := newContext("/api/workspaces")
	c.Request().Header.Set("Authorization", "Bearer not-a-token")

	require.NoError(t, AuthMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareStoresClaims(t *testing.T) {
	token, err := jwtutil.GenerateToken("alice@acme.com", "u1")
	require.NoError(t, err)

	called := false
	c, rec := newContext("/api/workspaces")
	c.Request().Header.Set("Authorization", "Bearer "+token)

	require.NoError(t, AuthMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "u1", c.Get("user_id"))
	assert.Equal(t, "alice@acme.com", c.Get("email"))
}

func TestWorkspaceMiddlewareResolvesSlugAndIDs(t *testing.T) {
	db := setupDB(t)
	w := seedMembership(t, db, "acme", "u1", model.RoleMember)

	for name, param := range map[string]string{
		"slug":      "acme",
		"raw id":    w.ID,
		"tagged id": "ws_" + w.ID,
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			c, rec := newContext("/api/workspaces/" + param)
			c.SetParamNames("idOrSlug")
			c.SetParamValues(param)
			c.Set("user_id", "u1")

			require.NoError(t, WorkspaceMiddleware(probe(&called))(c))
			require.Equal(t, http.StatusOK, rec.Code)
			require.True(t, called)

			resolved, ok := c.Get("workspace").(*model.Workspace)
			require.True(t, ok)
			assert.Equal(t, w.ID, resolved.ID)
			assert.Equal(t, model.RoleMember, c.Get("workspace_role"))
		})
	}
}

func TestWorkspaceMiddlewareUnknownWorkspace(t *testing.T) {
	setupDB(t)

	called := false
	c, rec := newContext("/api/workspaces/ghost")
	c.SetParamNames("idOrSlug")
	c.SetParamValues("ghost")
	c.Set("user_id", "u1")

	require.NoError(t, WorkspaceMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, called)
}

// Non-members get the same not-found as unknown workspaces, so membership
// stays invisible to outsiders
func TestWorkspaceMiddlewareHidesMembershipFromOutsiders(t *testing.T) {
	db := setupDB(t)
	seedMembership(t, db, "acme", "u1", model.RoleOwner)

	called := false
	c, rec := newContext("/api/workspaces/acme")
	c.SetParamNames("idOrSlug")
	c.SetParamValues("acme")
	c.Set("user_id", "outsider")

	require.NoError(t, WorkspaceMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "Workspace not found.")
}

func TestWorkspaceMiddlewareRequiresAuthentication(t *testing.T) {
	setupDB(t)

	called := false
	c, rec := newContext("/api/workspaces/acme")
	c.SetParamNames("idOrSlug")
	c.SetParamValues("acme")

	require.NoError(t, WorkspaceMiddleware(probe(&called))(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireOwnerBlocksMembers(t *testing.T) {
	called := false
	c, rec := newContext("/api/workspaces/acme")
	c.Set("workspace_role", model.RoleMember)

	require.NoError(t, RequireOwner(probe(&called))(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequireOwnerPassesOwners(t *testing.T) {
	called := false
	c, rec := newContext("/api/workspaces/acme")
	c.Set("workspace_role", model.RoleOwner)

	require.NoError(t, RequireOwner(probe(&called))(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	called := false
	c, rec := newContext("/health")

	require.NoError(t, RequestIDMiddleware(probe(&called))(c))
	assert.True(t, called)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
