package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/pkg/logging"
	"github.com/Skotchmaster/videotube/pkg/tokens"
)

const msgInvalidRefresh = "invalid refresh token"

type TokenService struct {
	Repo          UserRepository
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// IssuePair signs a fresh access/refresh pair and makes the new refresh token
// the only one accepted for the user.
func (s *TokenService) IssuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "token.issue", "user_id", user.ID)

	now := time.Now()
	accessExp := now.Add(s.AccessTTL)
	accessToken, err := tokens.SignAccess(tokens.AccessClaims{
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
	}, s.AccessSecret, accessExp)
	if err != nil {
		l.Error("issue_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, internal(err)
	}

	refreshExp := now.Add(s.RefreshTTL)
	refreshToken, err := tokens.SignRefresh(user.ID.String(), s.RefreshSecret, refreshExp)
	if err != nil {
		l.Error("issue_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, internal(err)
	}

	digest := tokens.Digest(refreshToken)
	if err := s.Repo.SetRefreshToken(ctx, user.ID, &digest); err != nil {
		l.Error("issue_failed", "status", 500, "reason", "cannot persist refresh token", "error", err)
		return nil, internal(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *TokenService) VerifyAccess(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, unauthorized("unauthorized request")
	}
	claims, err := tokens.AccessClaimsFromToken(token, s.AccessSecret)
	if err != nil {
		return uuid.Nil, newErr(ErrUnauthorized, "invalid access token", err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, newErr(ErrUnauthorized, "invalid access token", err)
	}
	return id, nil
}

// VerifyRefresh accepts a refresh token only if it is well formed, unexpired
// and still the one persisted for its subject.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "token.verify_refresh")

	claims, err := tokens.RefreshClaimsFromToken(token, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_rejected", "status", 401, "reason", "invalid", "error", err)
		return nil, newErr(ErrUnauthorized, msgInvalidRefresh, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		l.Warn("refresh_rejected", "status", 401, "reason", "invalid", "error", err)
		return nil, newErr(ErrUnauthorized, msgInvalidRefresh, err)
	}

	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_rejected", "status", 401, "reason", "user_missing", "user_id", id)
			return nil, newErr(ErrUnauthorized, msgInvalidRefresh, err)
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(tokens.Digest(token))) != 1 {
		l.Warn("refresh_rejected", "status", 401, "reason", "stale", "user_id", id)
		return nil, unauthorized(msgInvalidRefresh)
	}
	return user, nil
}

func (s *TokenService) Revoke(ctx context.Context, userID uuid.UUID) error {
	err := s.Repo.SetRefreshToken(ctx, userID, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.FromContext(ctx).With("svc", "token.revoke").
			Error("revoke_failed", "status", 500, "user_id", userID, "error", err)
		return internal(err)
	}
	return nil
}
