package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/models"
)

var privateColumns = []string{"password_hash", "refresh_token"}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) UserTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPublicUserByID never reads the password hash or the refresh digest.
func (r *GormRepo) GetPublicUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Omit(privateColumns...).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, digest *string) error {
	return r.updateColumn(ctx, id, "refresh_token", digest)
}

func (r *GormRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (r *GormRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumn(ctx, id, "avatar", url)
}

func (r *GormRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumn(ctx, id, "cover_image", url)
}

func (r *GormRepo) UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"full_name": fullName, "email": email})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
