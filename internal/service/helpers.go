package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/videotube/internal/events"
	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/search"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

const (
	folderAvatars = "avatars"
	folderCovers  = "covers"
)

var errEmptyURL = errors.New("media host returned an empty url")

func uploadImage(ctx context.Context, host MediaHost, timeout time.Duration, folder string, f *media.File) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	url, err := host.Upload(ctx, folder, *f)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", errEmptyURL
	}
	return url, nil
}

func deleteImage(ctx context.Context, host MediaHost, url string) {
	if url == "" {
		return
	}
	if err := host.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn("media_delete_failed", "url", url, "error", err)
	}
}

func publish(ctx context.Context, p Publisher, eventType string, u *models.User) {
	if p == nil {
		return
	}
	err := p.PublishEvent(ctx, events.TopicUserEvents, u.ID.String(), events.UserEvent{
		Type:     eventType,
		UserID:   u.ID.String(),
		Username: u.Username,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "event", eventType, "user_id", u.ID, "error", err)
	}
}

func indexChannel(ctx context.Context, idx ChannelIndex, u *models.User) {
	if idx == nil {
		return
	}
	err := idx.IndexChannel(ctx, search.Channel{
		ID:         u.ID.String(),
		Username:   u.Username,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("index_failed", "user_id", u.ID, "error", err)
	}
}

// sanitize strips the fields that must never leave the service.
func sanitize(u *models.User) *models.User {
	out := *u
	out.PasswordHash = ""
	out.RefreshToken = nil
	return &out
}
