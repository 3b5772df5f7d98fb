package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/search"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserTaken(ctx context.Context, username, email string) (bool, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetPublicUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, digest *string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error
	UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) error
	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error)
}

type MediaHost interface {
	Upload(ctx context.Context, folder string, f media.File) (string, error)
	Delete(ctx context.Context, url string) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type ChannelIndex interface {
	IndexChannel(ctx context.Context, ch search.Channel) error
	SearchChannels(ctx context.Context, query string, from, size int) (int64, []search.Channel, error)
}
