package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/events"
	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/search"
	"github.com/Skotchmaster/videotube/internal/util"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

type ProfileService struct {
	Repo          UserRepository
	Media         MediaHost
	Events        Publisher
	Index         ChannelIndex
	UploadTimeout time.Duration
}

type ChannelPage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Channels []search.Channel `json:"channels"`
}

func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID uuid.UUID, username string) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, validation("username is missing")
	}

	profile, err := s.Repo.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrNotFound, "channel does not exist", err)
		}
		logging.FromContext(ctx).With("svc", "profile.channel").
			Error("channel_profile_failed", "status", 500, "username", username, "error", err)
		return nil, internal(err)
	}
	return profile, nil
}

func (s *ProfileService) UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "profile.update_account", "user_id", userID)

	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, validation("all fields are required")
	}

	if err := s.Repo.UpdateDetails(ctx, userID, fullName, email); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			l.Info("update_account_failed", "status", 409, "reason", "email taken")
			return nil, newErr(ErrConflict, "email is already in use", err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, newErr(ErrNotFound, "user does not exist", err)
		}
		l.Error("update_account_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	return s.afterUpdate(ctx, userID)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, file *media.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, imageSlot{
		name:    "avatar",
		folder:  folderAvatars,
		current: func(u *models.User) string { return u.Avatar },
		store:   s.Repo.UpdateAvatar,
	})
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *media.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, imageSlot{
		name:    "cover image",
		folder:  folderCovers,
		current: func(u *models.User) string { return u.CoverImage },
		store:   s.Repo.UpdateCoverImage,
	})
}

type imageSlot struct {
	name    string
	folder  string
	current func(*models.User) string
	store   func(ctx context.Context, id uuid.UUID, url string) error
}

func (s *ProfileService) replaceImage(ctx context.Context, userID uuid.UUID, file *media.File, slot imageSlot) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "profile.update_image", "user_id", userID, "slot", slot.name)

	if file.Empty() {
		return nil, validation(slot.name + " file is missing")
	}

	user, err := s.Repo.GetPublicUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrNotFound, "user does not exist", err)
		}
		l.Error("update_image_failed", "status", 500, "error", err)
		return nil, internal(err)
	}
	previous := slot.current(user)

	url, err := uploadImage(ctx, s.Media, s.UploadTimeout, slot.folder, file)
	if err != nil {
		l.Error("update_image_failed", "status", 400, "reason", "upload failed", "error", err)
		return nil, newErr(ErrUpload, "error while uploading "+slot.name, err)
	}

	if err := slot.store(ctx, userID, url); err != nil {
		deleteImage(ctx, s.Media, url)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrNotFound, "user does not exist", err)
		}
		l.Error("update_image_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	if previous != url {
		deleteImage(ctx, s.Media, previous)
	}
	return s.afterUpdate(ctx, userID)
}

func (s *ProfileService) afterUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetPublicUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrNotFound, "user does not exist", err)
		}
		return nil, internal(err)
	}

	publish(ctx, s.Events, events.ProfileUpdated, user)
	indexChannel(ctx, s.Index, user)
	return user, nil
}

func (s *ProfileService) SearchChannels(ctx context.Context, query string, page, size int) (*ChannelPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation("search query is required")
	}
	if s.Index == nil {
		return nil, internal(errors.New("channel index is not configured"))
	}

	if page < 1 {
		page = 1
	}
	from, limit := util.Calculate(page, size)
	total, channels, err := s.Index.SearchChannels(ctx, query, from, limit)
	if err != nil {
		logging.FromContext(ctx).With("svc", "profile.search").
			Error("search_failed", "status", 500, "error", err)
		return nil, internal(err)
	}
	return &ChannelPage{Total: total, Page: page, Size: limit, Channels: channels}, nil
}
