package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/storage"
)

type UserHandler struct {
	Repo       *repo.Repo
	Aggregates *service.AggregateService
	Storage    storage.MediaStorage
}

func (h *UserHandler) CurrentUser(c echo.Context) error {
	user, err := h.Repo.UserByID(c.Request().Context(), currentUserID(c))
	if err != nil {
		if repo.IsNotFound(err) {
			return apperror.New(apperror.NotFound, "user not found")
		}
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c echo.Context) error {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email"    form:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}
	if req.FullName == "" || req.Email == "" {
		return apperror.New(apperror.Validation, "fullName and email are required")
	}

	user, err := h.Repo.UpdateAccount(c.Request().Context(), currentUserID(c), req.FullName, req.Email)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, user, "User details updated successfully")
}

func (h *UserHandler) updateImage(c echo.Context, field, column, message string) error {
	localPath, err := saveFormFile(c, field)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to read uploaded file", err)
	}
	if localPath == "" {
		return apperror.New(apperror.Validation, field+" image is required")
	}

	url, err := h.Storage.Upload(c.Request().Context(), localPath)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to upload "+field+" image", err)
	}

	user, err := h.Repo.UpdateImage(c.Request().Context(), currentUserID(c), column, url)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, user, message)
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", "avatar", "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", "cover_image", "Cover image updated successfully")
}

func (h *UserHandler) ChannelProfile(c echo.Context) error {
	profile, err := h.Aggregates.ChannelProfile(c.Request().Context(), c.Param("username"), currentUserID(c))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, profile, "User channel profile fetched successfully")
}

func (h *UserHandler) WatchHistory(c echo.Context) error {
	history, err := h.Aggregates.WatchHistory(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, history, "Watch history fetched successfully")
}
