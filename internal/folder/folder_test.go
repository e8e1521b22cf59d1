package folder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Folder{}, &model.FolderUser{}))
	return db
}

func strptr(s string) *string { return &s }

func TestVerifyAccessUnknownFolder(t *testing.T) {
	db := setupDB(t)

	err := VerifyAccess(db, "ws1", "u1", "missing", PermWrite)
	assert.True(t, apierror.IsCode(err, apierror.CodeNotFound))
}

func TestVerifyAccessFolderFromAnotherWorkspace(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&model.Folder{ID: "f1", Name: "Marketing", WorkspaceID: "other"}).Error)

	err := VerifyAccess(db, "ws1", "u1", "f1", PermRead)
	assert.True(t, apierror.IsCode(err, apierror.CodeNotFound))
}

func TestVerifyAccessDefaultAccessLevels(t *testing.T) {
	cases := []struct {
		name      string
		level     *string
		perm      Permission
		wantAllow bool
	}{
		{"write level allows write", strptr(model.FolderAccessWrite), PermWrite, true},
		{"write level allows read", strptr(model.FolderAccessWrite), PermRead, true},
		{"read level denies write", strptr(model.FolderAccessRead), PermWrite, false},
		{"read level allows read", strptr(model.FolderAccessRead), PermRead, true},
		{"restricted denies read", nil, PermRead, false},
		{"restricted denies write", nil, PermWrite, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupDB(t)
			require.NoError(t, db.Create(&model.Folder{
				ID:          "f1",
				Name:        "Marketing",
				WorkspaceID: "ws1",
				AccessLevel: tc.level,
			}).Error)

			err := VerifyAccess(db, "ws1", "u1", "f1", tc.perm)
			if tc.wantAllow {
				assert.NoError(t, err)
			} else {
				assert.True(t, apierror.IsCode(err, apierror.CodeForbidden))
			}
		})
	}
}

func TestVerifyAccessRoleWinsOverAccessLevel(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&model.Folder{
		ID:          "f1",
		Name:        "Marketing",
		WorkspaceID: "ws1",
		AccessLevel: strptr(model.FolderAccessWrite),
	}).Error)
	require.NoError(t, db.Create(&model.FolderUser{
		FolderID: "f1",
		UserID:   "u1",
		Role:     model.FolderRoleViewer,
	}).Error)

	// The viewer role restricts this member even though the folder default
	// would allow writes.
	assert.NoError(t, VerifyAccess(db, "ws1", "u1", "f1", PermRead))
	err := VerifyAccess(db, "ws1", "u1", "f1", PermWrite)
	assert.True(t, apierror.IsCode(err, apierror.CodeForbidden))
}

func TestVerifyAccessEditorAndOwnerRolesWrite(t *testing.T) {
	for _, role := range []string{model.FolderRoleOwner, model.FolderRoleEditor} {
		t.Run(role, func(t *testing.T) {
			db := setupDB(t)
			require.NoError(t, db.Create(&model.Folder{ID: "f1", Name: "Ops", WorkspaceID: "ws1"}).Error)
			require.NoError(t, db.Create(&model.FolderUser{FolderID: "f1", UserID: "u1", Role: role}).Error)

			assert.NoError(t, VerifyAccess(db, "ws1", "u1", "f1", PermWrite))
		})
	}
}
