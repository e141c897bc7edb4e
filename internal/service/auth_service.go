package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go-receipts-api/internal/model"
	"go-receipts-api/internal/repository"
	"go-receipts-api/pkg/jwt"
	"go-receipts-api/pkg/validator"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
	MaxPasswordLength = 64
	MinNameLength     = 1
	MaxNameLength     = 50

	// bcrypt refuses longer input, and the rune count above lets multi-byte
	// passwords past it.
	maxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrUsernameTaken      = errors.New("Username already registered")
	ErrUserNotFound       = errors.New("Token invalid (user not found)")
	ErrSessionReplaced    = errors.New("Session expired (logged in on another device)")
)

type AuthService interface {
	Register(req *RegisterRequest) (*model.User, error)
	Login(req *LoginRequest) (*LoginResponse, error)
	// Authenticate resolves a bearer token to the current user.
	Authenticate(tokenString string) (*model.User, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"min=3,max=20"`
	Password string `json:"password" validate:"min=6,max=64"`
	Name     string `json:"name" validate:"notblank,min=1,max=50"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// registrationMessages maps a failed field onto the client-facing message.
var registrationMessages = map[string]string{
	"Username": fmt.Sprintf("Username length must be between %d and %d characters", MinUsernameLength, MaxUsernameLength),
	"Password": fmt.Sprintf("Password length must be between %d and %d characters", MinPasswordLength, MaxPasswordLength),
	"Name":     fmt.Sprintf("Name length must be between %d and %d characters", MinNameLength, MaxNameLength),
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *authService) Register(req *RegisterRequest) (*model.User, error) {
	// 1. Validate request, first failing field wins
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		msg, ok := registrationMessages[errs[0].FailedField]
		if !ok {
			msg = fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
		}
		return nil, invalid(CodeInvalidRegistration, msg)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, invalid(CodeInvalidRegistration, registrationMessages["Password"])
	}

	// 2. Check if username already exists
	existing, err := s.userRepo.FindByUsername(req.Username)
	switch {
	case err == nil && existing != nil:
		return nil, ErrUsernameTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("lookup username failed", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		TokenVersion: uuid.New().String(),
	}
	if err := user.SetPassword(req.Password); err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid(CodeInvalidRegistration, registrationMessages["Password"])
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		s.logger.Warn("create user failed", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new login invalidates older tokens
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, version); err != nil {
		s.logger.Warn("rotate token version failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, errors.New("failed to update session")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Name, version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{AccessToken: token, TokenType: "Bearer"}, nil
}

func (s *authService) Authenticate(tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}
