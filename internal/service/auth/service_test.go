package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/mocks"
	"github.com/seu-repo/agrovoz/pkg/config"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

var testJWT = config.JWTConfig{
	Secret:               "test-secret-key",
	AccessTokenDuration:  15 * time.Minute,
	RefreshTokenDuration: 24 * time.Hour,
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.User{
		ID:       "user-123",
		FarmID:   "farm-1",
		Email:    "joao@fazenda.com",
		Password: string(hashed),
		Role:     domain.UserRoleManager,
		Status:   domain.UserStatusActive,
	}
}

func repoWith(user *domain.User) *mocks.MockUserRepository {
	return &mocks.MockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			if user != nil && email == user.Email {
				return user, nil
			}
			return nil, domain.ErrNotFound
		},
		FindByIDFunc: func(ctx context.Context, id string) (*domain.User, error) {
			if user != nil && id == user.ID {
				return user, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	user := activeUser(t, "password123")
	service := NewService(repoWith(user), mocks.NewMockCache(), testJWT, newTestLogger())

	// Act
	access, refresh, err := service.Login(ctx, "  Joao@Fazenda.com ", "password123")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}
	claims, err := service.tokens.ValidateToken(ctx, access, TokenTypeAccess)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Subject != "user-123" || claims.FarmID != "farm-1" || claims.Role != "manager" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLogin_Rejected(t *testing.T) {
	user := activeUser(t, "password123")
	inactive := activeUser(t, "password123")
	inactive.Status = domain.UserStatusInactive

	tests := []struct {
		name     string
		user     *domain.User
		email    string
		password string
	}{
		{name: "unknown email", user: user, email: "outro@fazenda.com", password: "password123"},
		{name: "wrong password", user: user, email: user.Email, password: "wrong"},
		{name: "inactive user", user: inactive, email: inactive.Email, password: "password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(repoWith(tt.user), mocks.NewMockCache(), testJWT, newTestLogger())

			_, _, err := service.Login(context.Background(), tt.email, tt.password)

			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	repo := &mocks.MockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, errors.New("database connection error")
		},
	}
	service := NewService(repo, mocks.NewMockCache(), testJWT, newTestLogger())

	_, _, err := service.Login(context.Background(), "joao@fazenda.com", "password123")

	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	var saved *domain.User
	repo := repoWith(nil)
	repo.SaveFunc = func(ctx context.Context, user *domain.User) error {
		saved = user
		return nil
	}
	service := NewService(repo, mocks.NewMockCache(), testJWT, newTestLogger())
	user := &domain.User{Name: "Maria", Email: "Maria@Fazenda.com", Password: "password123"}

	// Act
	err := service.Register(context.Background(), user)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved == nil {
		t.Fatal("user was not saved")
	}
	if saved.ID == "" || saved.FarmID == "" {
		t.Errorf("expected ids assigned, got id=%q farm=%q", saved.ID, saved.FarmID)
	}
	if saved.Role != domain.UserRoleOwner {
		t.Errorf("expected role %s, got %s", domain.UserRoleOwner, saved.Role)
	}
	if saved.Email != "maria@fazenda.com" || saved.Status != domain.UserStatusActive {
		t.Errorf("unexpected user %+v", saved)
	}
	if bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("password123")) != nil {
		t.Error("password was not hashed")
	}
}

func TestRegister_RejectsFarmMembership(t *testing.T) {
	repo := repoWith(nil)
	repo.SaveFunc = func(ctx context.Context, user *domain.User) error {
		t.Fatal("user must not be saved")
		return nil
	}
	service := NewService(repo, mocks.NewMockCache(), testJWT, newTestLogger())
	user := &domain.User{Name: "Maria", Email: "maria@fazenda.com", Password: "password123", FarmID: "farm-9"}

	err := service.Register(context.Background(), user)

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	owner := &domain.User{ID: "owner-1", FarmID: "farm-1", Role: domain.UserRoleOwner}

	tests := []struct {
		name     string
		inviter  *domain.User
		role     domain.UserRole
		wantErr  error
		wantRole domain.UserRole
	}{
		{name: "owner adds employee", inviter: owner, wantRole: domain.UserRoleEmployee},
		{name: "owner adds manager", inviter: owner, role: domain.UserRoleManager, wantRole: domain.UserRoleManager},
		{name: "owner role cannot be granted", inviter: owner, role: domain.UserRoleOwner, wantErr: domain.ErrValidation},
		{name: "manager cannot add", inviter: &domain.User{ID: "m-1", FarmID: "farm-1", Role: domain.UserRoleManager}, wantErr: domain.ErrForbidden},
		{name: "employee cannot add", inviter: &domain.User{ID: "e-1", FarmID: "farm-1", Role: domain.UserRoleEmployee}, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var saved *domain.User
			repo := repoWith(nil)
			repo.SaveFunc = func(ctx context.Context, user *domain.User) error {
				saved = user
				return nil
			}
			service := NewService(repo, mocks.NewMockCache(), testJWT, newTestLogger())
			user := &domain.User{Name: "Pedro", Email: "pedro@fazenda.com", Password: "password123", FarmID: "farm-9", Role: tt.role}

			// Act
			err := service.AddMember(context.Background(), user, tt.inviter)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if saved != nil {
					t.Error("user must not be saved")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if saved == nil {
				t.Fatal("user was not saved")
			}
			if saved.FarmID != tt.inviter.FarmID {
				t.Errorf("expected farm %q, got %q", tt.inviter.FarmID, saved.FarmID)
			}
			if saved.Role != tt.wantRole {
				t.Errorf("expected role %s, got %s", tt.wantRole, saved.Role)
			}
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
	}{
		{name: "bad email", user: domain.User{Name: "Maria", Email: "maria", Password: "password123"}},
		{name: "short password", user: domain.User{Name: "Maria", Email: "maria@fazenda.com", Password: "123"}},
		{name: "missing name", user: domain.User{Email: "maria@fazenda.com", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(repoWith(nil), mocks.NewMockCache(), testJWT, newTestLogger())
			user := tt.user

			err := service.Register(context.Background(), &user)

			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	existing := activeUser(t, "password123")
	service := NewService(repoWith(existing), mocks.NewMockCache(), testJWT, newTestLogger())

	err := service.Register(context.Background(), &domain.User{Name: "Joao", Email: existing.Email, Password: "password123"})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "password123")
	service := NewService(repoWith(user), mocks.NewMockCache(), testJWT, newTestLogger())

	access, refresh, err := service.Login(ctx, user.Email, "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	t.Run("valid access token", func(t *testing.T) {
		got, err := service.ValidateToken(ctx, access)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, got.ID)
		}
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		if _, err := service.ValidateToken(ctx, refresh); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := service.ValidateToken(ctx, "not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(repoWith(user), mocks.NewMockCache(), config.JWTConfig{Secret: "other"}, newTestLogger())
		if _, err := other.ValidateToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		other := NewService(repoWith(nil), mocks.NewMockCache(), testJWT, newTestLogger())
		if _, err := other.ValidateToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("user moved to another farm", func(t *testing.T) {
		moved := *user
		moved.FarmID = "farm-2"
		other := NewService(repoWith(&moved), mocks.NewMockCache(), testJWT, newTestLogger())
		if _, err := other.ValidateToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "password123")
	service := NewService(repoWith(user), mocks.NewMockCache(), testJWT, newTestLogger())

	issued := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	service.tokens.now = func() time.Time { return issued }
	access, _, err := service.Login(ctx, user.Email, "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	service.tokens.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := service.ValidateToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "password123")
	service := NewService(repoWith(user), mocks.NewMockCache(), testJWT, newTestLogger())
	access, refresh, err := service.Login(ctx, user.Email, "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	t.Run("issues a new access token", func(t *testing.T) {
		fresh, err := service.RefreshToken(ctx, refresh)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := service.ValidateToken(ctx, fresh); err != nil {
			t.Errorf("refreshed token invalid: %v", err)
		}
	})

	t.Run("access token rejected", func(t *testing.T) {
		if _, err := service.RefreshToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		other := NewService(repoWith(nil), mocks.NewMockCache(), testJWT, newTestLogger())
		if _, err := other.RefreshToken(ctx, refresh); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	user := activeUser(t, "password123")
	cache := mocks.NewMockCache()
	service := NewService(repoWith(user), cache, testJWT, newTestLogger())
	access, refresh, err := service.Login(ctx, user.Email, "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Act
	if err := service.Logout(ctx, access); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if err := service.Logout(ctx, refresh); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// Assert
	if _, err := service.ValidateToken(ctx, access); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected revoked access token rejected, got %v", err)
	}
	if _, err := service.RefreshToken(ctx, refresh); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected revoked refresh token rejected, got %v", err)
	}
}

func TestLogout_CacheFailure(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "password123")
	cache := mocks.NewMockCache()
	service := NewService(repoWith(user), cache, testJWT, newTestLogger())
	access, _, err := service.Login(ctx, user.Email, "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	cache.SetFunc = func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
		return errors.New("redis down")
	}

	if err := service.Logout(ctx, access); err == nil {
		t.Fatal("expected error when revocation cannot be stored")
	}
}

func TestRBAC_CheckPermission(t *testing.T) {
	rbac := NewRBACService(newTestLogger())

	tests := []struct {
		role     domain.UserRole
		resource string
		action   string
		want     bool
	}{
		{domain.UserRoleEmployee, ResourceRecords, ActionWrite, true},
		{domain.UserRoleEmployee, ResourceVoice, ActionWrite, true},
		{domain.UserRoleEmployee, ResourceRecords, ActionDelete, false},
		{domain.UserRoleManager, ResourceRecords, ActionDelete, true},
		{domain.UserRoleManager, ResourceUsers, ActionWrite, false},
		{domain.UserRoleOwner, ResourceUsers, ActionDelete, true},
		{domain.UserRole("visitor"), ResourceRecords, ActionRead, false},
	}

	for _, tt := range tests {
		got := rbac.CheckPermission(tt.role, tt.resource, tt.action)
		if got != tt.want {
			t.Errorf("%s %s:%s = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}
}
