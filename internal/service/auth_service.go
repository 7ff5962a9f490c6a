package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionReplaced = errors.New("session expired (logged in on another device)")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	EnsureAdmin(ctx context.Context, email, password, fullName string) (*model.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.Named("auth"),
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a fresh token version invalidates every older token.
	version := uuid.NewString()
	now := time.Now()
	if err := s.userRepo.StartSession(ctx, user.ID, version, now); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	user.TokenVersion = version
	user.LastLoginAt = &now

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.Role, user.Privileges(), version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return &LoginResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

// Authenticate validates a bearer token against the user's current session.
func (s *authService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	// Privileges follow the role as stored now, not as it was at login.
	claims.Role = user.Role
	claims.Privileges = user.Privileges()
	return claims, nil
}

// Logout ends the user's current session; its token stops authenticating.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.RevokeSessions(ctx, userID, uuid.NewString()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// EnsureAdmin creates the admin account when no user has that email yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, fullName string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := &model.User{
		Email:    email,
		FullName: fullName,
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	user.CreatedBy = systemActor
	user.UpdatedBy = systemActor
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("Admin user created", zap.String("email", email))
	return user, nil
}

// ResetPassword sets a new password and ends every open session of the user.
func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.userRepo.RevokeSessions(ctx, user.ID, uuid.NewString()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}
