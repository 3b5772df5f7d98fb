package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/events"
	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/pkg/hash"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

type SessionService struct {
	Repo          UserRepository
	Tokens        *TokenService
	Media         MediaHost
	Events        Publisher
	Index         ChannelIndex
	UploadTimeout time.Duration
}

type RegisterInput struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *media.File
	CoverImage *media.File
}

type LoginResult struct {
	User *models.User
	*TokenPair
}

func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	fullName := strings.TrimSpace(in.FullName)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if fullName == "" || username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, validation("all fields are required")
	}
	if len(in.Password) > hash.MaxPasswordBytes {
		return nil, validation("password must be at most 72 bytes")
	}

	taken, err := s.Repo.UserTaken(ctx, username, email)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot check uniqueness", "error", err)
		return nil, internal(err)
	}
	if taken {
		l.Info("register_error", "status", 409, "reason", "user already exists", "username", username)
		return nil, newErr(ErrConflict, "user with email or username already exists", nil)
	}

	if in.Avatar.Empty() {
		return nil, validation("avatar file is required")
	}
	avatarURL, err := uploadImage(ctx, s.Media, s.UploadTimeout, folderAvatars, in.Avatar)
	if err != nil {
		l.Error("register_error", "status", 400, "reason", "avatar upload failed", "error", err)
		return nil, newErr(ErrUpload, "failed to upload avatar", err)
	}

	var coverURL string
	if !in.CoverImage.Empty() {
		coverURL, err = uploadImage(ctx, s.Media, s.UploadTimeout, folderCovers, in.CoverImage)
		if err != nil {
			l.Warn("cover_upload_failed", "error", err)
			coverURL = ""
		}
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		s.discardUploads(ctx, avatarURL, coverURL)
		return nil, internal(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: pwHash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		s.discardUploads(ctx, avatarURL, coverURL)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Info("register_error", "status", 409, "reason", "unique index violation", "username", username)
			return nil, newErr(ErrConflict, "user with email or username already exists", err)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, internal(err)
	}

	created, err := s.Repo.GetPublicUserByID(ctx, user.ID)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "created user not found", "error", err)
		return nil, newErr(ErrInternal, "something went wrong while registering the user", err)
	}

	l.Info("user_registered", "user_id", created.ID)
	publish(ctx, s.Events, events.UserRegistered, created)
	indexChannel(ctx, s.Index, created)
	return created, nil
}

func (s *SessionService) discardUploads(ctx context.Context, urls ...string) {
	for _, url := range urls {
		deleteImage(ctx, s.Media, url)
	}
}

func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validation("email is required")
	}
	if password == "" {
		return nil, validation("password is required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Info("login_failed", "status", 404, "reason", "unknown email")
			return nil, newErr(ErrNotFound, "user does not exist", err)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, internal(err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid password", "user_id", user.ID)
		return nil, unauthorized("invalid user credentials")
	}

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("user_logged_in", "user_id", user.ID)
	publish(ctx, s.Events, events.UserLoggedIn, user)
	return &LoginResult{User: sanitize(user), TokenPair: pair}, nil
}

func (s *SessionService) Logout(ctx context.Context, user *models.User) error {
	if err := s.Tokens.Revoke(ctx, user.ID); err != nil {
		return err
	}
	logging.FromContext(ctx).With("svc", "session.logout").Info("user_logged_out", "user_id", user.ID)
	publish(ctx, s.Events, events.UserLoggedOut, user)
	return nil
}

// Refresh trades a valid refresh token for a new pair. The presented token
// stops being accepted once the new one is persisted.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*LoginResult, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, unauthorized("unauthorized request")
	}

	user, err := s.Tokens.VerifyRefresh(ctx, presented)
	if err != nil {
		return nil, err
	}

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: sanitize(user), TokenPair: pair}, nil
}

func (s *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "session.change_password", "user_id", userID)

	if oldPassword == "" || newPassword == "" {
		return validation("old and new password are required")
	}
	if len(newPassword) > hash.MaxPasswordBytes {
		return validation("password must be at most 72 bytes")
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("change_password_failed", "status", 401, "reason", "user_missing")
			return newErr(ErrUnauthorized, "unauthorized request", err)
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return internal(err)
	}

	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Info("change_password_failed", "status", 400, "reason", "invalid old password")
		return validation("invalid old password")
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return internal(err)
	}
	if err := s.Repo.UpdatePassword(ctx, userID, pwHash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newErr(ErrUnauthorized, "unauthorized request", err)
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return internal(err)
	}

	l.Info("password_changed")
	publish(ctx, s.Events, events.PasswordChanged, user)
	return nil
}

func (s *SessionService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetPublicUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrUnauthorized, "unauthorized request", err)
		}
		return nil, internal(err)
	}
	return user, nil
}

// Authenticate resolves an access token to the user it was issued for.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	id, err := s.Tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.Repo.GetPublicUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErr(ErrUnauthorized, "invalid access token", err)
		}
		logging.FromContext(ctx).With("svc", "session.authenticate").
			Error("authenticate_failed", "status", 500, "error", err)
		return nil, internal(err)
	}
	return user, nil
}
