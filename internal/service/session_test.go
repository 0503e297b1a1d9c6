package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/tokens"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// a second pool connection would see its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Video{}, &models.Comment{},
		&models.Tweet{}, &models.Subscription{}, &models.WatchEntry{},
	))
	return db
}

func newSessionService(t *testing.T) *SessionService {
	t.Helper()

	issuer := tokens.NewIssuer([]byte("test-access-secret"), []byte("test-refresh-secret"), 15*time.Minute, 7*24*time.Hour)
	return NewSessionService(repo.New(initTestDB(t)), issuer)
}

func registerAlice(t *testing.T, svc *SessionService) *models.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		FullName: "Alice Example",
		Email:    "alice@x.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()

	require.Error(t, err)
	ae := apperror.From(err)
	require.Equal(t, kind, ae.Kind)
	return ae
}

func TestRegisterAndConflict(t *testing.T) {
	svc := newSessionService(t)
	ctx := context.Background()

	user := registerAlice(t, svc)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Nil(t, user.RefreshToken)

	_, err := svc.Register(ctx, RegisterInput{
		Username: "alice", FullName: "Other", Email: "other@x.com", Password: "pw123456",
	})
	requireKind(t, err, apperror.Conflict)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "other", FullName: "Other", Email: "alice@x.com", Password: "pw123456",
	})
	requireKind(t, err, apperror.Conflict)
}

func TestRegisterNormalizesUsername(t *testing.T) {
	svc := newSessionService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "MixedCase", FullName: "M C", Email: "mc@x.com", Password: "pw123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "mixedcase", user.Username)
}

func TestLoginSuccess(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)

	result, err := svc.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.NotEqual(t, result.AccessToken, result.RefreshToken)

	// refresh value is mirrored on the user record
	stored, err := svc.Repo.UserByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.RefreshToken, *stored.RefreshToken)
}

func TestLoginByEmail(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), "alice@x.com", "secret123")
	require.NoError(t, err)
}

func TestLoginUniformFailureMessage(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)

	_, errWrongPassword := svc.Login(context.Background(), "alice", "wrong")
	aeWrong := requireKind(t, errWrongPassword, apperror.Unauthenticated)

	_, errNoUser := svc.Login(context.Background(), "nobody", "secret123")
	aeMissing := requireKind(t, errNoUser, apperror.Unauthenticated)

	// caller cannot distinguish unknown user from wrong password
	assert.Equal(t, aeWrong.Message, aeMissing.Message)
}

func TestLoginInvalidatesPriorRefreshToken(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	first, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	requireKind(t, err, apperror.Unauthenticated)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the original value was rotated out and must now be rejected
	_, err = svc.Refresh(ctx, login.RefreshToken)
	requireKind(t, err, apperror.Unauthenticated)

	// the new value keeps working
	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshWithNeverIssuedToken(t *testing.T) {
	svc := newSessionService(t)
	user := registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	// cryptographically valid token that was never installed on the record
	foreign, _, err := svc.Issuer.IssueRefresh(user.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, foreign)
	requireKind(t, err, apperror.Unauthenticated)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc := newSessionService(t)

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	requireKind(t, err, apperror.Unauthenticated)

	_, err = svc.Refresh(context.Background(), "")
	requireKind(t, err, apperror.Validation)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.AccessToken)
	requireKind(t, err, apperror.Unauthenticated)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.User.ID))

	stored, err := svc.Repo.UserByID(ctx, login.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)

	// token is still within its signed lifetime but must be rejected
	_, err = svc.Refresh(ctx, login.RefreshToken)
	requireKind(t, err, apperror.Unauthenticated)
}

func TestChangePassword(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, login.User.ID, "wrong", "newsecret456")
	requireKind(t, err, apperror.Validation)

	require.NoError(t, svc.ChangePassword(ctx, login.User.ID, "secret123", "newsecret456"))

	_, err = svc.Login(ctx, "alice", "secret123")
	requireKind(t, err, apperror.Unauthenticated)

	_, err = svc.Login(ctx, "alice", "newsecret456")
	require.NoError(t, err)

	// outstanding sessions are revoked along with the password
	_, err = svc.Refresh(ctx, login.RefreshToken)
	requireKind(t, err, apperror.Unauthenticated)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	svc := newSessionService(t)
	registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Refresh(ctx, login.RefreshToken)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			requireKind(t, err, apperror.Unauthenticated)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent refresh may win")
}
