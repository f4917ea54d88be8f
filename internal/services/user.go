package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/store"
	"github.com/noob2628/Inventory-App/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateRole(ctx context.Context, email string, role types.Role) (types.User, error)
}

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// UserService encapsulates credential use-cases.
type UserService struct {
	repo     UserRepository
	hashCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, hashCost: bcrypt.DefaultCost}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Signup creates a regular user. Taken usernames and emails are all
// reported in a single *ConflictError.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.User{}, invalid("", "username, email and password are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return types.User{}, invalid("email", "invalid email")
	}

	var taken []string
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		taken = append(taken, "email")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		taken = append(taken, "username")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check username: %w", err)
	}
	if len(taken) > 0 {
		return types.User{}, &ConflictError{Fields: taken}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		Role:         types.RoleUser,
		PasswordHash: string(hashed),
	})
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			return types.User{}, &ConflictError{Fields: []string{conflict.Field}}
		}
		return types.User{}, err
	}
	return user, nil
}

// Authenticate looks the user up by email and checks the password.
// It returns store.ErrNotFound for unknown emails and ErrInvalidCredentials
// for wrong passwords.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, auth.Claims, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, auth.Claims{}, invalid("", "email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, auth.Claims{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, auth.Claims{}, ErrInvalidCredentials
	}
	return user, auth.Claims{UserID: user.ID, Role: user.Role}, nil
}

// Promote assigns role to the user registered under email.
func (s *UserService) Promote(ctx context.Context, email string, role types.Role) (types.User, error) {
	if !role.Valid() {
		return types.User{}, invalid("role", fmt.Sprintf("unknown role %q", role))
	}
	return s.repo.UpdateRole(ctx, strings.TrimSpace(email), role)
}
