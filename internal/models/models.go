package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	FullName     string    `gorm:"not null"                 json:"fullName"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Avatar       string    `gorm:"not null"                 json:"avatar"`
	CoverImage   string    `gorm:"not null;default:''"      json:"coverImage"`
	RefreshToken *string   `gorm:"index"                    json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Subscription is an edge from a subscriber to the channel they follow.
type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                               json:"id"`
	SubscriberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_channel" json:"subscriberId"`
	ChannelID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_channel;index" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type ChannelProfile struct {
	ID                        uuid.UUID `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}
