package utils

import (
	"errors"

	"inkwell-api/models"
)

// Authorization error kinds. Handlers map these to 401/403 responses; no
// permission check panics or aborts on its own.
var (
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient permissions")
)

// CheckRole allows the actor through when its role is in allowedRoles.
func CheckRole(actor *models.User, allowedRoles ...models.Role) error {
	if actor == nil {
		return ErrAuthRequired
	}
	for _, role := range allowedRoles {
		if actor.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// CheckOwnerOrAdmin allows the resource owner or an admin actor.
func CheckOwnerOrAdmin(actor *models.User, ownerID uint) error {
	if actor == nil {
		return ErrAuthRequired
	}
	if actor.Role != models.RoleAdmin && actor.ID != ownerID {
		return ErrForbidden
	}
	return nil
}

// CheckOwnerOrModerator allows the resource owner, or an admin/editor actor.
// Comments and media use this rule; posts use CheckOwnerOrAdmin.
func CheckOwnerOrModerator(actor *models.User, ownerID uint) error {
	if actor == nil {
		return ErrAuthRequired
	}
	if actor.ID == ownerID || IsModerator(actor) {
		return nil
	}
	return ErrForbidden
}

// IsModerator reports whether the actor may moderate content (approve/reject
// comments, manage taxonomy, browse the media library).
func IsModerator(actor *models.User) bool {
	return actor != nil && (actor.Role == models.RoleAdmin || actor.Role == models.RoleEditor)
}
