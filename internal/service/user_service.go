package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

type UserService interface {
	GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*domain.User, error)
	// RecordWorkout adds a finished workout to the user's stats.
	RecordWorkout(ctx context.Context, userID primitive.ObjectID, exercises int, now time.Time) (domain.WorkoutStats, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) SetRole(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) RecordWorkout(ctx context.Context, userID primitive.ObjectID, exercises int, now time.Time) (domain.WorkoutStats, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.WorkoutStats{}, err
	}
	stats := user.Stats.RecordWorkout(exercises, now)
	if err := s.userRepo.UpdateStats(ctx, userID, stats); err != nil {
		return domain.WorkoutStats{}, fmt.Errorf("update stats: %w", err)
	}
	return stats, nil
}
