package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/tokens"
)

type stubStorage struct{}

func (stubStorage) Upload(_ context.Context, _ string) (string, error) {
	return "http://cdn.local/media", nil
}

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Video{}, &models.Comment{},
		&models.Tweet{}, &models.Subscription{}, &models.WatchEntry{},
	))

	issuer := tokens.NewIssuer([]byte("test-access"), []byte("test-refresh"), 15*time.Minute, 7*24*time.Hour)
	repository := repo.New(db)
	sessions := service.NewSessionService(repository, issuer)
	aggregates := service.NewAggregateService(repository)
	media := stubStorage{}

	e := echo.New()
	Register(e, &Deps{
		DB:                  db,
		Issuer:              issuer,
		AuthHandler:         &handlers.AuthHandler{Sessions: sessions, Storage: media},
		UserHandler:         &handlers.UserHandler{Repo: repository, Aggregates: aggregates, Storage: media},
		CommentHandler:      &handlers.CommentHandler{DB: db, Aggregates: aggregates},
		TweetHandler:        &handlers.TweetHandler{DB: db},
		VideoHandler:        &handlers.VideoHandler{DB: db, Storage: media},
		SubscriptionHandler: &handlers.SubscriptionHandler{DB: db},
	})
	return e, db
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, payload any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestHealthcheckRoute(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/healthcheck", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
}

func TestFullSessionFlow(t *testing.T) {
	e, _ := newTestServer(t)

	// register
	rec := doJSON(t, e, http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice", "fullName": "Alice Example",
		"email": "alice@x.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// login
	rec = doJSON(t, e, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loginCookies := rec.Result().Cookies()
	require.NotEmpty(t, loginCookies)

	// authenticated read with the access cookie
	rec = doJSON(t, e, http.MethodGet, "/api/v1/users/current-user", nil, loginCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])

	// refresh rotates the pair
	rec = doJSON(t, e, http.MethodPost, "/api/v1/users/refresh-token", nil, loginCookies)
	require.Equal(t, http.StatusOK, rec.Code)

	// the prior refresh token is now revoked
	rec = doJSON(t, e, http.MethodPost, "/api/v1/users/refresh-token", nil, loginCookies)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope = decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.NotNil(t, envelope["errors"])
}

func TestLoginFailureEnvelope(t *testing.T) {
	e, _ := newTestServer(t)

	doJSON(t, e, http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice", "fullName": "Alice Example",
		"email": "alice@x.com", "password": "secret123",
	}, nil)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, float64(http.StatusUnauthorized), envelope["statusCode"])
	assert.NotEmpty(t, envelope["message"])
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/users/watch-history", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
}

func TestChannelProfileAnonymous(t *testing.T) {
	e, db := newTestServer(t)

	user := models.User{Username: "bob", Email: "bob@x.com", FullName: "Bob", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/users/channel/bob", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, false, data["isSubscribed"])
	assert.Equal(t, float64(0), data["subscribersCount"])
}

func TestChannelProfileUnknownHandle(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/users/channel/ghost", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
