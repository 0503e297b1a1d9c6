package service

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/util"
)

// AggregateService computes denormalized read views by joining the
// normalized records. Field selection on the views is a compatibility
// surface, keep it stable.
type AggregateService struct {
	Repo *repo.Repo
}

func NewAggregateService(r *repo.Repo) *AggregateService {
	return &AggregateService{Repo: r}
}

type ChannelProfile struct {
	ID                        uint   `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// ChannelProfile resolves a handle to its channel view. viewerID may be zero
// for an anonymous request, which always yields isSubscribed=false.
func (s *AggregateService) ChannelProfile(ctx context.Context, username string, viewerID uint) (*ChannelProfile, error) {
	l := logging.FromContext(ctx).With("svc", "aggregate.channel_profile")

	if username == "" {
		return nil, apperror.New(apperror.Validation, "username is required")
	}

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, apperror.New(apperror.NotFound, "channel not found")
		}
		l.Error("profile_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	subscribers, err := s.Repo.CountSubscribers(ctx, user.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	subscribedTo, err := s.Repo.CountSubscribedTo(ctx, user.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	isSubscribed, err := s.Repo.IsSubscribed(ctx, viewerID, user.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return &ChannelProfile{
		ID:                        user.ID,
		Username:                  user.Username,
		FullName:                  user.FullName,
		Email:                     user.Email,
		Avatar:                    user.Avatar,
		CoverImage:                user.CoverImage,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              isSubscribed,
	}, nil
}

type WatchedVideo struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	URL         string               `json:"url"`
	Thumbnail   string               `json:"thumbnail"`
	Duration    float64              `json:"duration"`
	Views       uint                 `json:"views"`
	WatchedAt   time.Time            `json:"watchedAt"`
	Owner       models.PublicProfile `json:"owner"`
}

// WatchHistory returns the caller's history most-recent-first. An empty
// history is a valid result; only an unresolvable caller is NotFound.
func (s *AggregateService) WatchHistory(ctx context.Context, userID uint) ([]WatchedVideo, error) {
	if _, err := s.Repo.UserByID(ctx, userID); err != nil {
		if repo.IsNotFound(err) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	rows, err := s.Repo.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	history := make([]WatchedVideo, len(rows))
	for i, row := range rows {
		history[i] = WatchedVideo{
			ID:          row.VideoID,
			Title:       row.Title,
			Description: row.Description,
			URL:         row.URL,
			Thumbnail:   row.Thumbnail,
			Duration:    row.Duration,
			Views:       row.Views,
			WatchedAt:   row.WatchedAt,
			Owner: models.PublicProfile{
				ID:       row.OwnerID,
				Username: row.OwnerUsername,
				FullName: row.OwnerFullName,
				Avatar:   row.OwnerAvatar,
			},
		}
	}
	return history, nil
}

type CommentView struct {
	ID        uint                 `json:"id"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"createdAt"`
	Owner     models.PublicProfile `json:"owner"`
	Video     CommentVideoRef      `json:"video"`
}

type CommentVideoRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// VideoComments returns one page of a video's comments, each joined to its
// owner and its video. A missing video is NotFound; an existing video with an
// empty page is a valid result with an empty list.
func (s *AggregateService) VideoComments(ctx context.Context, videoID uint, page, limit int) ([]CommentView, error) {
	exists, err := s.Repo.VideoExists(ctx, videoID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	if !exists {
		return nil, apperror.New(apperror.NotFound, "video not found")
	}

	offset, size := util.Calculate(page, limit)
	rows, err := s.Repo.CommentsPage(ctx, videoID, offset, size)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	comments := make([]CommentView, len(rows))
	for i, row := range rows {
		comments[i] = CommentView{
			ID:        row.ID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			Owner: models.PublicProfile{
				ID:       row.OwnerID,
				Username: row.OwnerUsername,
				FullName: row.OwnerFullName,
				Avatar:   row.OwnerAvatar,
			},
			Video: CommentVideoRef{
				ID:    row.VideoID,
				Title: row.VideoTitle,
			},
		}
	}
	return comments, nil
}
