package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/model"
)

const minPasswordLength = 8

// UserService provisions employees and issues their tokens.
type UserService struct {
	users UserStore
	auth  *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth}
}

// CreateUser validates the input, hashes the password and stores the user.
func (s *UserService) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case name == "":
		return nil, apperror.BadRequest(apperror.CodeValidation, "name is required")
	case !in.Role.Valid():
		return nil, apperror.BadRequest(apperror.CodeValidation, fmt.Sprintf("unknown role %q", in.Role))
	case len(in.Password) < minPasswordLength:
		return nil, apperror.BadRequest(apperror.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.BadRequest(apperror.CodeValidation, "email is invalid")
	}

	exists, err := s.users.CompanyExists(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound(fmt.Sprintf("company %d not found", in.CompanyID))
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u := &model.User{
		CompanyID:    in.CompanyID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperror.From(err)
	}
	return u, nil
}

// IssueToken signs a token for an existing user.
func (s *UserService) IssueToken(ctx context.Context, userID int64) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.auth.GenerateToken(u)
}
