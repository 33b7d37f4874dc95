package services

import (
	"context"

	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"

	"go.uber.org/zap"
)

type UserServiceInterface interface {
	GetActiveUsers(ctx context.Context) ([]entities.User, error)
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, logger *zap.Logger) UserServiceInterface {
	return &UserService{userRepo: userRepo, logger: logger}
}

// GetActiveUsers - список тех, кого можно указать ответственным за перемещение.
func (s *UserService) GetActiveUsers(ctx context.Context) ([]entities.User, error) {
	users, err := s.userRepo.GetActiveUsers(ctx)
	if err != nil {
		return nil, persistenceOr("list_users", err)
	}
	return users, nil
}
