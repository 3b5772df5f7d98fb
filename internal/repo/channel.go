package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/models"
)

const channelProfileSQL = `
SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.cover_image,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
	EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed
FROM users u
WHERE u.username = ?
LIMIT 1`

// ChannelProfile looks the channel up by lowercase username and aggregates
// its subscription edges relative to viewerID.
func (r *GormRepo) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfile, error) {
	var profile models.ChannelProfile
	res := r.DB.WithContext(ctx).
		Raw(channelProfileSQL, viewerID, strings.ToLower(username)).
		Scan(&profile)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || profile.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &profile, nil
}
