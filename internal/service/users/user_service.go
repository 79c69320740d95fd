package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserUseCase interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type CreateUserInput struct {
	FirstName string      `json:"firstname" validate:"required,max=30"`
	LastName  string      `json:"lastname" validate:"required,max=30"`
	Email     string      `json:"email" validate:"required,email,max=254"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type UserService struct {
	store      repository.Store
	bcryptCost int
	validate   *validation.Validator
}

func NewUserService(store repository.Store, bcryptCost int) *UserService {
	return &UserService{
		store:      store,
		bcryptCost: bcryptCost,
		validate:   validation.New(),
	}
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().List(ctx)
}

// DeleteUser removes the user together with their bookings and tickets.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Users().Delete(ctx, id)
	})
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

var _ UserUseCase = (*UserService)(nil)
