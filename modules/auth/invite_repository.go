package auth

import (
	"context"
	"errors"

	domain "github.com/example/jobboard-auth/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrInviteNotFound is returned when no unused invite matches.
	ErrInviteNotFound = errors.New("invite code not found")
	// ErrInviteExists is returned when an invite code collides.
	ErrInviteExists = errors.New("invite code already exists")
)

// InviteRepository handles invite code persistence using GORM.
type InviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository.
func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{
		db: db,
	}
}

// Create inserts a new invite.
func (r *InviteRepository) Create(ctx context.Context, invite *domain.InviteCode) error {
	result := r.db.WithContext(ctx).Create(invite)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrInviteExists
		}
		return result.Error
	}
	return nil
}

// FindUnusedByCode finds an unused invite by its code.
func (r *InviteRepository) FindUnusedByCode(ctx context.Context, code string) (*domain.InviteCode, error) {
	return r.findOne(ctx, "code = ? AND is_used = ?", code, false)
}

// FindUnusedByEmail finds an unused invite addressed to email.
func (r *InviteRepository) FindUnusedByEmail(ctx context.Context, email string) (*domain.InviteCode, error) {
	return r.findOne(ctx, "email = ? AND is_used = ?", email, false)
}

// Consume flips is_used on the invite only if it is still unused.
// Exactly one concurrent caller succeeds; the others get ErrStaleUpdate.
func (r *InviteRepository) Consume(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.InviteCode{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleUpdate
	}
	return nil
}

// Redeem consumes the invite and grants its role to the user in one
// transaction. Neither change is kept unless both apply.
func (r *InviteRepository) Redeem(ctx context.Context, inviteID, userID string, role domain.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.InviteCode{}).
			Where("id = ? AND is_used = ?", inviteID, false).
			Update("is_used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleUpdate
		}

		result = tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"role":             role,
				"invite_code_used": inviteID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *InviteRepository) findOne(ctx context.Context, query string, args ...any) (*domain.InviteCode, error) {
	var invite domain.InviteCode
	result := r.db.WithContext(ctx).Where(query, args...).First(&invite)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, result.Error
	}
	return &invite, nil
}
