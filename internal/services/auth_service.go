package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authapi/internal/logutil"
	"authapi/internal/models"
	"authapi/internal/repositories"
	"authapi/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

// EventPublisher receives user lifecycle events. Implemented by *rabbitmq.Client.
type EventPublisher interface {
	PublishUserEvent(event rabbitmq.UserEvent) error
}

// AuthService handles registration, login and token resolution.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventPublisher // optional
	validate *validator.Validate
}

type credentials struct {
	Name     string `validate:"required,min=3,max=20"`
	Password string `validate:"required,min=5,max=72"`
}

// NewAuthService creates a new AuthService. events may be nil.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		validate: validator.New(),
	}
}

// Register validates the credentials, hashes the password, mints a token and
// persists the new user, in that order. Nothing is stored if any step fails.
func (s *AuthService) Register(ctx context.Context, name, password string) (*models.User, error) {
	if err := s.validateCredentials(name, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	token, err := s.tokens.Issue()
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		PasswordHash: hash,
		AccessToken:  token,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logger := logutil.GetOrDefault(ctx)
	logger.Info().Str("user.id", user.ID).Str("user.name", user.Name).Msg("User registered")
	s.publish(ctx, rabbitmq.EventUserRegistered, user)
	return user, nil
}

// Login checks name and password and returns the stored user with its
// existing access token. The record is never modified.
func (s *AuthService) Login(ctx context.Context, name, password string) (*models.User, error) {
	user, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	logger := logutil.GetOrDefault(ctx)
	logger.Info().Str("user.id", user.ID).Msg("User logged in")
	s.publish(ctx, rabbitmq.EventUserLoggedIn, user)
	return user, nil
}

// Authenticate resolves an access token to its owner.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return user, nil
}

// SecretMessage is the protected resource served to an authenticated user.
func (s *AuthService) SecretMessage(user *models.User) string {
	return fmt.Sprintf("This is a secret message for %s", user.Name)
}

func (s *AuthService) validateCredentials(name, password string) error {
	fields := make(map[string]string)
	if err := s.validate.Struct(credentials{Name: name, Password: password}); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("failed to validate credentials: %w", err)
		}
		for _, e := range validationErrors {
			fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	if _, ok := fields["Password"]; !ok && len(password) > maxPasswordBytes {
		fields["Password"] = fmt.Sprintf("Field 'Password' must not exceed %d bytes", maxPasswordBytes)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *models.User) {
	if s.events == nil {
		return
	}
	event := rabbitmq.UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Name:       user.Name,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishUserEvent(event); err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().Err(err).Str("event.type", eventType).Str("user.id", user.ID).Msg("Failed to publish user event")
	}
}
