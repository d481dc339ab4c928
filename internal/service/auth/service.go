package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/pkg/config"
)

const minPasswordLength = 8

type Service struct {
	userRepo ports.UserRepository
	tokens   *JWTService
	log      *zap.Logger
	now      func() time.Time
}

func NewService(userRepo ports.UserRepository, cache ports.Cache, cfg config.JWTConfig, log *zap.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   NewJWTService(cfg.Secret, cfg.AccessTokenDuration, cfg.RefreshTokenDuration, cache, log),
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("user lookup failed", zap.Error(err))
		}
		return "", "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if user.Status != domain.UserStatusActive {
		return "", "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("farm_id", user.FarmID))
	return access, refresh, nil
}

// Register is the public sign-up: the user starts a farm of their own and
// becomes its owner. Joining an existing farm goes through AddMember.
func (s *Service) Register(ctx context.Context, user *domain.User) error {
	if user.FarmID != "" {
		return fmt.Errorf("%w: farm members are added by the farm owner", domain.ErrValidation)
	}
	user.FarmID = uuid.NewString()
	user.Role = domain.UserRoleOwner
	return s.create(ctx, user)
}

// AddMember creates a user in the inviter's farm. Only owners may add
// members; the new user is an employee unless a manager role is requested.
func (s *Service) AddMember(ctx context.Context, user *domain.User, inviter *domain.User) error {
	if inviter == nil || inviter.Role != domain.UserRoleOwner {
		return fmt.Errorf("%w: only the farm owner adds members", domain.ErrForbidden)
	}
	switch user.Role {
	case "":
		user.Role = domain.UserRoleEmployee
	case domain.UserRoleEmployee, domain.UserRoleManager:
	default:
		return fmt.Errorf("%w: role %q cannot be granted", domain.ErrValidation, user.Role)
	}
	user.FarmID = inviter.FarmID
	if err := s.create(ctx, user); err != nil {
		return err
	}
	s.log.Info("farm member added", zap.String("user_id", user.ID), zap.String("invited_by", inviter.ID))
	return nil
}

func (s *Service) create(ctx context.Context, user *domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(user.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(user.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	switch _, err := s.userRepo.FindByEmail(ctx, user.Email); {
	case err == nil:
		return fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)

	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Status = domain.UserStatusActive
	if user.Language == "" {
		user.Language = "pt-BR"
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("farm_id", user.FarmID))
	return nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", err
	}
	if user.Status != domain.UserStatusActive {
		return "", fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
	}

	return s.tokens.GenerateAccessToken(user)
}

// ValidateToken resolves an access token to its user. The farm in the token
// must still match the user's farm.
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(ctx, token, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusActive || user.FarmID != claims.FarmID {
		return nil, fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
	}
	return user, nil
}

// Logout revokes the given token, access or refresh.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.parse(token)
	if err != nil {
		return err
	}
	return s.tokens.RevokeToken(ctx, claims)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ ports.AuthService = (*Service)(nil)
