package repo

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func (r *Repo) CountSubscribers(ctx context.Context, channelID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error
	return count, err
}

func (r *Repo) CountSubscribedTo(ctx context.Context, subscriberID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&count).Error
	return count, err
}

func (r *Repo) IsSubscribed(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	if subscriberID == 0 {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&count).Error
	return count > 0, err
}

// WatchRow is one flattened watch-history record: the video joined to a
// public-safe projection of its owner.
type WatchRow struct {
	VideoID       uint      `json:"videoId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	Thumbnail     string    `json:"thumbnail"`
	Duration      float64   `json:"duration"`
	Views         uint      `json:"views"`
	WatchedAt     time.Time `json:"watchedAt"`
	OwnerID       uint      `json:"ownerId"`
	OwnerUsername string    `json:"ownerUsername"`
	OwnerFullName string    `json:"ownerFullName"`
	OwnerAvatar   string    `json:"ownerAvatar"`
}

// WatchHistory returns the caller's history most-recent-first, each entry
// joined to its video and to the video owner's public projection.
func (r *Repo) WatchHistory(ctx context.Context, userID uint) ([]WatchRow, error) {
	var rows []WatchRow
	err := r.DB.WithContext(ctx).Model(&models.WatchEntry{}).
		Select(`videos.id AS video_id, videos.title, videos.description, videos.url,
			videos.thumbnail, videos.duration, videos.views,
			watch_entries.created_at AS watched_at,
			users.id AS owner_id, users.username AS owner_username,
			users.full_name AS owner_full_name, users.avatar AS owner_avatar`).
		Joins("JOIN videos ON videos.id = watch_entries.video_id").
		Joins("JOIN users ON users.id = videos.owner_id").
		Where("watch_entries.user_id = ?", userID).
		Order("watch_entries.id DESC").
		Scan(&rows).Error
	return rows, err
}

// CommentRow is one flattened comment record joined to its owner and video.
type CommentRow struct {
	ID            uint      `json:"id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
	OwnerID       uint      `json:"ownerId"`
	OwnerUsername string    `json:"ownerUsername"`
	OwnerFullName string    `json:"ownerFullName"`
	OwnerAvatar   string    `json:"ownerAvatar"`
	VideoID       uint      `json:"videoId"`
	VideoTitle    string    `json:"videoTitle"`
}

// CommentsPage returns one page of a video's comments in creation order.
// Ordering by primary key keeps pagination stable between identical reads.
func (r *Repo) CommentsPage(ctx context.Context, videoID uint, offset, limit int) ([]CommentRow, error) {
	var rows []CommentRow
	err := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Select(`comments.id, comments.content, comments.created_at,
			users.id AS owner_id, users.username AS owner_username,
			users.full_name AS owner_full_name, users.avatar AS owner_avatar,
			videos.id AS video_id, videos.title AS video_title`).
		Joins("JOIN users ON users.id = comments.owner_id").
		Joins("JOIN videos ON videos.id = comments.video_id").
		Where("comments.video_id = ?", videoID).
		Order("comments.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repo) VideoExists(ctx context.Context, videoID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Video{}).
		Where("id = ?", videoID).
		Count(&count).Error
	return count > 0, err
}
