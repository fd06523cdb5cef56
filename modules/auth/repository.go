package auth

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/jobboard-auth/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrStaleUpdate is returned when a conditional update matched no row.
	ErrStaleUpdate = errors.New("record changed concurrently")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a new user. The unique email index decides concurrent
// registrations; the loser gets ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByVerificationToken finds the user holding a verification token.
func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findOne(ctx, "verification_token = ?", token)
}

// FindByResetToken finds the user whose hashed reset token matches and has
// not expired at now.
func (r *UserRepository) FindByResetToken(ctx context.Context, hashed string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, "reset_password_token = ? AND reset_password_expire > ?", hashed, now)
}

// EmailExists checks if a user with the given email exists.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// UpdatePassword replaces the password hash, clears any reset token and
// bumps the token version so outstanding refresh tokens stop working.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, map[string]any{
		"password_hash":         passwordHash,
		"reset_password_token":  nil,
		"reset_password_expire": nil,
		"token_version":         gorm.Expr("token_version + 1"),
	})
}

// SetResetToken stores a hashed reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, hashed string, expiresAt time.Time) error {
	return r.updateByID(ctx, id, map[string]any{
		"reset_password_token":  hashed,
		"reset_password_expire": expiresAt,
	})
}

// MarkVerified flips is_verified for the holder of token, only if the
// account is still unverified. A lost race returns ErrStaleUpdate.
func (r *UserRepository) MarkVerified(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("verification_token = ? AND is_verified = ?", token, false).
		Updates(map[string]any{
			"is_verified":        true,
			"verification_token": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleUpdate
	}
	return nil
}

// BumpTokenVersion invalidates every refresh token issued to the user.
func (r *UserRepository) BumpTokenVersion(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, map[string]any{
		"token_version": gorm.Expr("token_version + 1"),
	})
}

// Delete removes a user permanently.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Where(query, args...).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
