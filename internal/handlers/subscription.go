package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/models"
)

type SubscriptionHandler struct {
	DB *gorm.DB
}

// Toggle subscribes the caller to a channel, or unsubscribes if a
// subscription already exists.
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	channelID, err := parseIDParam(c, "channelId")
	if err != nil {
		return err
	}

	subscriberID := currentUserID(c)
	if subscriberID == channelID {
		return apperror.New(apperror.Validation, "cannot subscribe to your own channel")
	}

	db := h.DB.WithContext(c.Request().Context())

	var channel models.User
	if err := db.First(&channel, channelID).Error; err != nil {
		return apperror.New(apperror.NotFound, "channel not found")
	}

	var existing models.Subscription
	err = db.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		First(&existing).Error
	if err == nil {
		if err := db.Delete(&existing).Error; err != nil {
			return apperror.Wrap(apperror.Internal, "internal server error", err)
		}
		return respond(c, http.StatusOK, echo.Map{"subscribed": false}, "Unsubscribed successfully")
	}

	sub := models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	if err := db.Create(&sub).Error; err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	return respond(c, http.StatusOK, echo.Map{"subscribed": true}, "Subscribed successfully")
}
