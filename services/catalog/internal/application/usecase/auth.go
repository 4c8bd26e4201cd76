package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/cache"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/repository"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/security"
)

var ErrTokenRevoked = errors.New("token revoked")

type AuthUseCase struct {
	userRepo     *repository.UserRepository
	tokenCache   *cache.TokenCache
	hasher       *security.PasswordHasher
	tokenManager *security.TokenManager
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	tc *cache.TokenCache,
	h *security.PasswordHasher,
	tm *security.TokenManager,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		tokenCache:   tc,
		hasher:       h,
		tokenManager: tm,
	}
}

// Signup registers a new account. Unknown roles fall back to student.
func (uc *AuthUseCase) Signup(ctx context.Context, name, email, password string, role course.Role) (*domain.User, error) {
	if !role.Valid() {
		role = course.RoleStudent
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: hash,
		Role:     role,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks the credentials and issues an access token.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, _, err := uc.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the token until it would have expired.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	claims, err := uc.tokenManager.Validate(token)
	if err != nil {
		return err
	}
	return uc.tokenCache.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Authenticate validates the token and rejects revoked ones.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*security.Claims, error) {
	claims, err := uc.tokenManager.Validate(token)
	if err != nil {
		return nil, err
	}
	revoked, err := uc.tokenCache.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}
