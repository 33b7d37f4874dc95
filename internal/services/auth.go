package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/repositories"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/service"
	"hospital-equipment/pkg/utils"

	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
}

// LockoutPolicy - сколько неудачных попыток входа допускается и на сколько блокируется вход.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	validator  Validator
	lockout    LockoutPolicy
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	validator Validator,
	lockout LockoutPolicy,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		validator:  validator,
		lockout:    lockout,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	if err := s.validator.Validate(&payload); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	logger := s.logger.With(zap.String("email", email))

	if err := s.checkLockout(ctx, email); err != nil {
		logger.Warn("Вход заблокирован после серии неудачных попыток")
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.handleFailedLoginAttempt(ctx, email)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, persistenceOr("login", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, email)
		return nil, apperrors.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, email)

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("не удалось выпустить токен: %w", err)
	}

	logger.Info("Пользователь вошёл в систему", zap.Uint64("user_id", user.ID))
	return &dto.LoginResponseDTO{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) checkLockout(ctx context.Context, email string) error {
	if _, err := s.cacheRepo.Get(ctx, lockoutKey(email)); err == nil {
		return apperrors.NewHttpError(
			http.StatusTooManyRequests,
			fmt.Sprintf("Слишком много попыток. Попробуйте через %.0f минут.", s.lockout.Duration.Minutes()),
			nil,
			nil,
		)
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, email string) {
	if s.lockout.MaxAttempts <= 0 {
		return
	}
	attemptsKey := loginAttemptsKey(email)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("Не удалось учесть неудачную попытку входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		s.cacheRepo.Expire(ctx, attemptsKey, s.lockout.Duration)
	}
	if attempts >= int64(s.lockout.MaxAttempts) {
		s.cacheRepo.Set(ctx, lockoutKey(email), "locked", s.lockout.Duration)
		s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, email string) {
	s.cacheRepo.Del(ctx, loginAttemptsKey(email), lockoutKey(email))
}

func loginAttemptsKey(email string) string { return "login_attempts:" + email }

func lockoutKey(email string) string { return "lockout:" + email }
