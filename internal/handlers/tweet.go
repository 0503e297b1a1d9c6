package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/models"
)

type TweetHandler struct {
	DB *gorm.DB
}

type tweetWithOwner struct {
	models.Tweet
	Owner models.PublicProfile `json:"owner"`
}

func (h *TweetHandler) Create(c echo.Context) error {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.Content == "" {
		return apperror.New(apperror.Validation, "tweet content is required")
	}

	tweet := models.Tweet{
		Content: req.Content,
		OwnerID: currentUserID(c),
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&tweet).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusCreated, tweet, "Tweet created successfully")
}

func (h *TweetHandler) ListByUser(c echo.Context) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		return apperror.New(apperror.NotFound, "user not found")
	}

	var tweets []models.Tweet
	err = h.DB.WithContext(c.Request().Context()).
		Where("owner_id = ?", userID).
		Order("id ASC").
		Find(&tweets).Error
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	owner := user.Public()
	out := make([]tweetWithOwner, len(tweets))
	for i, t := range tweets {
		out[i] = tweetWithOwner{Tweet: t, Owner: owner}
	}

	return respond(c, http.StatusOK, out, "Tweets fetched successfully")
}

func (h *TweetHandler) loadOwned(c echo.Context) (*models.Tweet, error) {
	tweetID, err := parseIDParam(c, "tweetId")
	if err != nil {
		return nil, err
	}

	var tweet models.Tweet
	if err := h.DB.WithContext(c.Request().Context()).First(&tweet, tweetID).Error; err != nil {
		return nil, apperror.New(apperror.NotFound, "tweet not found")
	}
	if tweet.OwnerID != currentUserID(c) {
		return nil, apperror.New(apperror.Forbidden, "you are not the owner of this tweet")
	}
	return &tweet, nil
}

func (h *TweetHandler) Update(c echo.Context) error {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.Content == "" {
		return apperror.New(apperror.Validation, "tweet content is required")
	}

	tweet, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	tweet.Content = req.Content
	if err := h.DB.WithContext(c.Request().Context()).Save(tweet).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, tweet, "Tweet updated successfully")
}

func (h *TweetHandler) Delete(c echo.Context) error {
	tweet, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	if err := h.DB.WithContext(c.Request().Context()).Delete(tweet).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, tweet, "Tweet deleted successfully")
}
