package repo

import (
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// AutoMigrate is used by tests running on sqlite; production schema comes from goose.
func (r *GormRepo) AutoMigrate() error {
	return r.DB.AutoMigrate(&models.User{}, &models.Subscription{})
}
