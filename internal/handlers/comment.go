package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/util"
)

type CommentHandler struct {
	DB         *gorm.DB
	Aggregates *service.AggregateService
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.New(apperror.Validation, "invalid "+name)
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *CommentHandler) List(c echo.Context) error {
	videoID, err := parseIDParam(c, "videoId")
	if err != nil {
		return err
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	comments, err := h.Aggregates.VideoComments(c.Request().Context(), videoID, page, limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, comments, "Comments fetched successfully")
}

func (h *CommentHandler) Add(c echo.Context) error {
	videoID, err := parseIDParam(c, "videoId")
	if err != nil {
		return err
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.Content == "" {
		return apperror.New(apperror.Validation, "comment content is required")
	}

	var video models.Video
	if err := h.DB.WithContext(c.Request().Context()).First(&video, videoID).Error; err != nil {
		return apperror.New(apperror.NotFound, "video not found")
	}

	comment := models.Comment{
		Content: req.Content,
		OwnerID: currentUserID(c),
		VideoID: videoID,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&comment).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusCreated, comment, "Comment added successfully")
}

func (h *CommentHandler) Update(c echo.Context) error {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return err
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.Content == "" {
		return apperror.New(apperror.Validation, "comment content is required")
	}

	var comment models.Comment
	if err := h.DB.WithContext(c.Request().Context()).First(&comment, commentID).Error; err != nil {
		return apperror.New(apperror.NotFound, "comment not found")
	}
	if comment.OwnerID != currentUserID(c) {
		return apperror.New(apperror.Forbidden, "you are not the owner of this comment")
	}

	comment.Content = req.Content
	if err := h.DB.WithContext(c.Request().Context()).Save(&comment).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, comment, "Comment updated successfully")
}

func (h *CommentHandler) Delete(c echo.Context) error {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return err
	}

	var comment models.Comment
	if err := h.DB.WithContext(c.Request().Context()).First(&comment, commentID).Error; err != nil {
		return apperror.New(apperror.NotFound, "comment not found")
	}
	if comment.OwnerID != currentUserID(c) {
		return apperror.New(apperror.Forbidden, "you are not the owner of this comment")
	}

	if err := h.DB.WithContext(c.Request().Context()).Delete(&comment).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, comment, "Comment deleted successfully")
}
