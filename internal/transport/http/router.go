package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/tokens"
)

type Deps struct {
	DB                  *gorm.DB
	Issuer              *tokens.Issuer
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	CommentHandler      *handlers.CommentHandler
	TweetHandler        *handlers.TweetHandler
	VideoHandler        *handlers.VideoHandler
	SubscriptionHandler *handlers.SubscriptionHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	requireAuth := middleware.RequireAuth(d.Issuer)
	optionalAuth := middleware.OptionalAuth(d.Issuer)

	v1 := e.Group("/api/v1")

	v1.GET("/healthcheck", handlers.Healthcheck)

	users := v1.Group("/users")
	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.POST("/refresh-token", d.AuthHandler.Refresh)
	users.POST("/logout", d.AuthHandler.Logout, requireAuth)
	users.POST("/change-password", d.AuthHandler.ChangePassword, requireAuth)
	users.GET("/current-user", d.UserHandler.CurrentUser, requireAuth)
	users.PATCH("/update-account", d.UserHandler.UpdateAccount, requireAuth)
	users.PATCH("/avatar", d.UserHandler.UpdateAvatar, requireAuth)
	users.PATCH("/cover-image", d.UserHandler.UpdateCoverImage, requireAuth)
	users.GET("/channel/:username", d.UserHandler.ChannelProfile, optionalAuth)
	users.GET("/watch-history", d.UserHandler.WatchHistory, requireAuth)

	comments := v1.Group("/comments", requireAuth)
	comments.GET("/:videoId", d.CommentHandler.List)
	comments.POST("/:videoId", d.CommentHandler.Add)
	comments.PATCH("/:commentId", d.CommentHandler.Update)
	comments.DELETE("/:commentId", d.CommentHandler.Delete)

	tweets := v1.Group("/tweets", requireAuth)
	tweets.POST("", d.TweetHandler.Create)
	tweets.GET("/user/:userId", d.TweetHandler.ListByUser)
	tweets.PATCH("/:tweetId", d.TweetHandler.Update)
	tweets.DELETE("/:tweetId", d.TweetHandler.Delete)

	videos := v1.Group("/videos")
	videos.GET("/search", d.VideoHandler.Search)
	videos.POST("", d.VideoHandler.Create, requireAuth)
	videos.GET("/:videoId", d.VideoHandler.Get, requireAuth)

	subscriptions := v1.Group("/subscriptions", requireAuth)
	subscriptions.POST("/:channelId", d.SubscriptionHandler.Toggle)
}
