package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/events"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/storage"
)

type AuthHandler struct {
	Sessions *service.SessionService
	Storage  storage.MediaStorage
	Producer *events.Producer
}

// currentUserID reads the identity the auth middleware stored on the context.
func currentUserID(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

// saveFormFile spools an optional multipart file to a local temp path for the
// media storage collaborator. Absent file returns "" with no error.
func saveFormFile(c echo.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// uploadFormFile saves an optional multipart file and hands it to the media
// storage. Returns "" when the field is absent.
func (h *AuthHandler) uploadFormFile(c echo.Context, field string) (string, error) {
	localPath, err := saveFormFile(c, field)
	if err != nil {
		return "", apperror.Wrap(apperror.Internal, "failed to read uploaded file", err)
	}
	if localPath == "" {
		return "", nil
	}

	url, err := h.Storage.Upload(c.Request().Context(), localPath)
	if err != nil {
		return "", apperror.Wrap(apperror.Internal, fmt.Sprintf("failed to upload %s", field), err)
	}
	return url, nil
}

func publish(c echo.Context, p *events.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_failed", "topic", topic, "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username" form:"username"`
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email"    form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}

	avatar, err := h.uploadFormFile(c, "avatar")
	if err != nil {
		return err
	}
	cover, err := h.uploadFormFile(c, "coverImage")
	if err != nil {
		return err
	}

	user, err := h.Sessions.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   avatar,
		Cover:    cover,
	})
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return respond(c, http.StatusCreated, user, "User registered successfully")
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email"    form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	result, err := h.Sessions.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		return err
	}

	setSessionCookies(c, result.AccessToken, result.RefreshToken, result.AccessExp, result.RefreshExp)

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(result.User.ID), map[string]any{
		"type":     "user_logged_in",
		"userID":   result.User.ID,
		"username": result.User.Username,
	})

	return respond(c, http.StatusOK, echo.Map{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "User logged in successfully")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Logout(c.Request().Context(), currentUserID(c)); err != nil {
		return err
	}

	clearSessionCookies(c)
	return respond(c, http.StatusOK, echo.Map{}, "User logged out")
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var presented string
	if cookie, err := c.Cookie(RefreshCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	result, err := h.Sessions.Refresh(c.Request().Context(), presented)
	if err != nil {
		return err
	}

	setSessionCookies(c, result.AccessToken, result.RefreshToken, result.AccessExp, result.RefreshExp)

	return respond(c, http.StatusOK, echo.Map{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "Tokens refreshed successfully")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		CurrentPassword string `json:"currentPassword" form:"currentPassword"`
		NewPassword     string `json:"newPassword"     form:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.New(apperror.Validation, "invalid body")
	}

	err := h.Sessions.ChangePassword(c.Request().Context(), currentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, echo.Map{}, "Password changed successfully")
}
