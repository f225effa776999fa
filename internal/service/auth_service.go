package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	"github.com/spec-kit/shop-service/internal/throttle"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized, nil)

// ThrottleRecorder counts rejected login attempts.
type ThrottleRecorder interface {
	RecordLoginThrottled()
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	limiter    throttle.Limiter
	dispatcher events.Dispatcher
	metrics    ThrottleRecorder
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Limiter      throttle.Limiter
	Dispatcher   events.Dispatcher
	Metrics      ThrottleRecorder
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = throttle.Disabled{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.TokenManager,
		limiter:    limiter,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterUser creates a standard account and issues its first token. The
// existence check only short-circuits the common case; the store's unique
// constraints decide concurrent registrations.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*domain.User, *domain.Token, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	firstName, lastName := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return nil, nil, apperrors.NewValidationError("firstName and lastName are required", nil)
	}

	if taken, err := s.users.Exists(ctx, username, ""); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	} else if taken {
		return nil, nil, mapStoreError(repository.ErrDuplicateUsername, "user")
	}
	if taken, err := s.users.Exists(ctx, "", email); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	} else if taken {
		return nil, nil, mapStoreError(repository.ErrDuplicateEmail, "user")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusStandard,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, mapStoreError(err, "user")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Status)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Payload:   events.UserRegisteredPayload{Username: user.Username, Email: user.Email},
	})
	return user, token, nil
}

// LoginUser authenticates by username or email. Unknown identifiers and wrong
// passwords produce the same error.
func (s *AuthService) LoginUser(ctx context.Context, identifier, password, clientIP string) (*domain.User, *domain.Token, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("identifier and password required", nil)
	}

	res, err := s.limiter.Allow(ctx, strings.ToLower(identifier)+"|"+clientIP)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.Error(err))
	} else if !res.Allowed {
		if s.metrics != nil {
			s.metrics.RecordLoginThrottled()
		}
		return nil, nil, apperrors.NewTooManyRequests("too many login attempts", res.RetryAfter)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, nil, errInvalidCredentials
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Status)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// Logout is a no-op for stateless tokens; the client discards its copy.
func (s *AuthService) Logout(_ context.Context) error {
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
