package folder

import (
	"errors"
	"fmt"

	"github.com/code/app-dub-agpl/internal/apierror"
	"github.com/code/app-dub-agpl/internal/model"

	"gorm.io/gorm"
)

// Permission names a folder capability
type Permission string

const (
	PermRead  Permission = "folders.read"
	PermWrite Permission = "folders.write"
)

// VerifyAccess checks that the user may act on the folder with the given
// permission. The folder must belong to the workspace. An explicit folder
// role wins over the folder's default access level; without either, access
// is denied.
func VerifyAccess(db *gorm.DB, workspaceID, userID, folderID string, perm Permission) error {
	var f model.Folder
	err := db.Where("id = ? AND workspace_id = ?", folderID, workspaceID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("Folder not found.")
	}
	if err != nil {
		return fmt.Errorf("failed to load folder: %w", err)
	}

	var member model.FolderUser
	err = db.Where("folder_id = ? AND user_id = ?", folderID, userID).First(&member).Error
	switch {
	case err == nil:
		if allowedByRole(member.Role, perm) {
			return nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if allowedByAccessLevel(f.AccessLevel, perm) {
			return nil
		}
	default:
		return fmt.Errorf("failed to load folder role: %w", err)
	}

	return apierror.Forbidden("You are not allowed to perform this action on this folder.")
}

func allowedByRole(role string, perm Permission) bool {
	switch role {
	case model.FolderRoleOwner, model.FolderRoleEditor:
		return true
	case model.FolderRoleViewer:
		return perm == PermRead
	}
	return false
}

func allowedByAccessLevel(level *string, perm Permission) bool {
	if level == nil {
		return false
	}
	switch *level {
	case model.FolderAccessWrite:
		return true
	case model.FolderAccessRead:
		return perm == PermRead
	}
	return false
}
