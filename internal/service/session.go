// Package service holds the core business logic: the session state machine
// and the aggregation views. Handlers translate transport concerns, services
// return typed apperror values.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/hash"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repo"
	"github.com/clipstream/backend/internal/tokens"
)

// One generic message for every login failure mode, so a caller cannot tell
// "no such user" from "wrong password". Refresh failures collapse the same
// way: signature, expiry, missing user and stored-value mismatch are
// indistinguishable.
const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidRefresh     = "invalid or expired refresh token"
)

type SessionService struct {
	Repo   *repo.Repo
	Issuer *tokens.Issuer
}

func NewSessionService(r *repo.Repo, issuer *tokens.Issuer) *SessionService {
	return &SessionService{Repo: r, Issuer: issuer}
}

type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Password string
	Avatar   string
	Cover    string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type LoginResult struct {
	User *models.User
	TokenPair
}

func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	if in.Username == "" || in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.New(apperror.Validation, "all fields are required")
	}

	exists, err := s.Repo.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	if exists {
		l.Warn("register_failed", "reason", "user_exists")
		return nil, apperror.New(apperror.Conflict, "user with given email or username already exists")
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	user := &models.User{
		Username:     strings.ToLower(in.Username),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: pwHash,
		Avatar:       in.Avatar,
		CoverImage:   in.Cover,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

// Login verifies the identifier/password pair and installs a fresh refresh
// value on the user record, invalidating any previously issued one.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	if identifier == "" || password == "" {
		return nil, apperror.New(apperror.Validation, "username or email and password are required")
	}

	user, err := s.Repo.UserByIdentifier(ctx, identifier)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("login_failed", "reason", "unknown_identifier")
			return nil, apperror.New(apperror.Unauthenticated, msgInvalidCredentials)
		}
		l.Error("login_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password_mismatch")
		return nil, apperror.New(apperror.Unauthenticated, msgInvalidCredentials)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("login_failed", "reason", "cannot create token", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	if err := s.Repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		l.Error("login_failed", "reason", "cannot persist refresh token", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	user.RefreshToken = &pair.RefreshToken

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// Refresh validates the presented refresh token statelessly, then binds it to
// the stored value with a single compare-and-set rotation. Both tokens of the
// new pair are minted before anything is persisted, so a failure never leaves
// a half-rotated record.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	if presented == "" {
		return nil, apperror.New(apperror.Validation, "refresh token is required")
	}

	userID, err := s.Issuer.VerifyRefresh(presented)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid_or_expired")
		return nil, apperror.New(apperror.Unauthenticated, msgInvalidRefresh)
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("refresh_failed", "reason", "user_gone", "user_id", userID)
			return nil, apperror.New(apperror.Unauthenticated, msgInvalidRefresh)
		}
		l.Error("refresh_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		l.Error("refresh_failed", "reason", "cannot create token", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	if err := s.Repo.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if err == repo.ErrTokenMismatch {
			l.Warn("refresh_failed", "reason", "revoked", "user_id", user.ID)
			return nil, apperror.New(apperror.Unauthenticated, msgInvalidRefresh)
		}
		l.Error("refresh_failed", "reason", "db_error", "error", err)
		return nil, apperror.Wrap(apperror.Internal, "internal server error", err)
	}
	user.RefreshToken = &pair.RefreshToken

	l.Info("refresh_success", "user_id", user.ID)
	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// Logout clears the stored refresh value outright. Any outstanding refresh
// token, however long its signed lifetime, fails the comparison afterwards.
func (s *SessionService) Logout(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	if err := s.Repo.SetRefreshToken(ctx, userID, nil); err != nil {
		l.Error("logout_failed", "reason", "db_error", "error", err)
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	l.Info("logout_success", "user_id", userID)
	return nil
}

// ChangePassword re-verifies the current password before accepting the new
// one. It also clears the stored refresh value in the same statement:
// outstanding sessions do not survive a password change.
func (s *SessionService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "session.change_password")

	if current == "" || next == "" {
		return apperror.New(apperror.Validation, "current and new password are required")
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return apperror.New(apperror.NotFound, "user not found")
		}
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	if !hash.CheckPassword(user.PasswordHash, current) {
		l.Warn("change_password_failed", "reason", "password_mismatch", "user_id", userID)
		return apperror.New(apperror.Validation, "current password is incorrect")
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	if err := s.Repo.ReplacePasswordAndRevoke(ctx, userID, pwHash); err != nil {
		l.Error("change_password_failed", "reason", "db_error", "error", err)
		return apperror.Wrap(apperror.Internal, "internal server error", err)
	}

	l.Info("change_password_success", "user_id", userID)
	return nil
}

func (s *SessionService) issuePair(userID uint) (*TokenPair, error) {
	access, accessExp, err := s.Issuer.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Issuer.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
