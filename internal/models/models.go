package models

import (
	"time"
)

// User is the credential store record. PasswordHash and RefreshToken never
// leave this package through JSON; responses use PublicProfile when only a
// public-safe owner projection is needed.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	FullName     string    `gorm:"not null"                 json:"fullName"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicProfile is the projection safe to embed in any response.
type PublicProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

type Video struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint      `gorm:"index;not null"           json:"ownerId"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `json:"description"`
	URL         string    `gorm:"not null"                 json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       uint      `json:"views"`
	Published   bool      `gorm:"default:true"             json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"not null"                 json:"content"`
	OwnerID   uint      `gorm:"index;not null"           json:"ownerId"`
	VideoID   uint      `gorm:"index;not null"           json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Tweet struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"not null"                 json:"content"`
	OwnerID   uint      `gorm:"index;not null"           json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel (both are users).
type Subscription struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"                          json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriber_channel"       json:"subscriberId"`
	ChannelID    uint      `gorm:"index;not null;uniqueIndex:idx_subscriber_channel" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchEntry is one row of a user's watch history, appended per view.
type WatchEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"userId"`
	VideoID   uint      `gorm:"not null"                 json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
}
