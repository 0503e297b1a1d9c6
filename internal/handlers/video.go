package handlers

import (
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/es"
	"github.com/clipstream/backend/internal/events"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/util"
)

type VideoHandler struct {
	DB       *gorm.DB
	Storage  storage.MediaStorage
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *VideoHandler) Create(c echo.Context) error {
	var req struct {
		Title       string  `json:"title"       form:"title"`
		Description string  `json:"description" form:"description"`
		Duration    float64 `json:"duration"    form:"duration"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.Title == "" {
		return apperror.New(apperror.Validation, "title is required")
	}

	localPath, err := saveFormFile(c, "videoFile")
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to read uploaded file", err)
	}
	if localPath == "" {
		return apperror.New(apperror.Validation, "video file is required")
	}

	url, err := h.Storage.Upload(c.Request().Context(), localPath)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to upload video", err)
	}

	thumbnail := ""
	if thumbPath, err := saveFormFile(c, "thumbnail"); err == nil && thumbPath != "" {
		if thumbURL, err := h.Storage.Upload(c.Request().Context(), thumbPath); err == nil {
			thumbnail = thumbURL
		}
	}

	video := models.Video{
		OwnerID:     currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		URL:         url,
		Thumbnail:   thumbnail,
		Duration:    req.Duration,
		Published:   true,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&video).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	publish(c, h.Producer, events.TopicVideoEvents, fmt.Sprint(video.ID), map[string]any{
		"type":    "video_uploaded",
		"videoID": video.ID,
		"ownerID": video.OwnerID,
		"title":   video.Title,
	})

	return respond(c, http.StatusCreated, video, "Video uploaded successfully")
}

// Get returns a video and appends a watch-history entry for the requester.
func (h *VideoHandler) Get(c echo.Context) error {
	videoID, err := parseIDParam(c, "videoId")
	if err != nil {
		return err
	}

	db := h.DB.WithContext(c.Request().Context())

	var video models.Video
	if err := db.First(&video, videoID).Error; err != nil {
		return apperror.New(apperror.NotFound, "video not found")
	}

	if err := db.Model(&video).Update("views", gorm.Expr("views + 1")).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	entry := models.WatchEntry{UserID: currentUserID(c), VideoID: video.ID}
	if err := db.Create(&entry).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	publish(c, h.Producer, events.TopicVideoEvents, fmt.Sprint(video.ID), map[string]any{
		"type":    "video_watched",
		"videoID": video.ID,
		"userID":  entry.UserID,
	})

	return respond(c, http.StatusOK, video, "Video fetched successfully")
}

func (h *VideoHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperror.New(apperror.Validation, "query parameter q is required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, videos, err := es.SearchVideos(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "search failed", err)
	}

	return respond(c, http.StatusOK, echo.Map{
		"items": videos,
		"total": total,
		"page":  page,
		"size":  limit,
	}, "Videos fetched successfully")
}
