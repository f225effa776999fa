package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// UpdateUserInput is a partial update; nil or blank fields are ignored.
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	Status    *string
}

// UserService manages accounts on behalf of an authorized caller.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: bcryptCost}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Get looks an account up by username or email.
func (s *UserService) Get(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	return user, nil
}

// Update applies the non-empty fields of in to the account id. Passwords are
// re-hashed; only admins may change status.
func (s *UserService) Update(ctx context.Context, actor *auth.Principal, id string, in UpdateUserInput) error {
	if !validID(id) {
		return apperrors.NewNotFound("user", nil)
	}

	var (
		patch  domain.UserPatch
		fields []string
	)
	if v := nonEmpty(in.Username); v != nil {
		*v = normalizeUsername(*v)
		if err := validateUsername(*v); err != nil {
			return err
		}
		patch.Username = v
		fields = append(fields, "username")
	}
	if v := nonEmpty(in.Email); v != nil {
		email := normalizeEmail(*v)
		if err := validateEmail(email); err != nil {
			return err
		}
		patch.Email = &email
		fields = append(fields, "email")
	}
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		patch.PasswordHash = &hash
		fields = append(fields, "password")
	}
	if v := nonEmpty(in.Status); v != nil {
		status := domain.UserStatus(*v)
		if !status.Valid() {
			return apperrors.NewValidationError("status must be standard or admin", map[string]any{"field": "status"})
		}
		if !actor.IsAdmin() {
			return apperrors.NewForbidden("only admins may change status")
		}
		patch.Status = &status
		fields = append(fields, "status")
	}
	if v := nonEmpty(in.FirstName); v != nil {
		patch.FirstName = v
		fields = append(fields, "firstName")
	}
	if v := nonEmpty(in.LastName); v != nil {
		patch.LastName = v
		fields = append(fields, "lastName")
	}
	if v := nonEmpty(in.Phone); v != nil {
		patch.Phone = v
		fields = append(fields, "phone")
	}
	if v := nonEmpty(in.Address); v != nil {
		patch.Address = v
		fields = append(fields, "address")
	}

	if patch.Empty() {
		return apperrors.NewValidationError("no fields provided for update", nil)
	}

	affected, err := s.users.UpdateFields(ctx, id, patch)
	if err != nil {
		return mapStoreError(err, "user")
	}
	if affected == 0 {
		return apperrors.NewNotFound("user", nil)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserUpdated,
		SubjectID: id,
		Actor:     actorOf(actor),
		Payload:   events.UserUpdatedPayload{Fields: fields, PasswordChanged: patch.PasswordHash != nil},
	})
	return nil
}

// Delete removes the account matching identifier.
func (s *UserService) Delete(ctx context.Context, actor *auth.Principal, identifier string) error {
	if identifier == "" {
		return apperrors.NewValidationError("username is required", nil)
	}
	affected, err := s.users.DeleteByIdentifier(ctx, identifier)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if affected == 0 {
		return apperrors.NewNotFound("user", nil)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserDeleted,
		SubjectID: identifier,
		Actor:     actorOf(actor),
		Payload:   events.UserDeletedPayload{Identifier: identifier},
	})
	return nil
}

// SetStatus changes an account's role without an authenticated actor. It backs
// operator tooling such as creating the first admin.
func (s *UserService) SetStatus(ctx context.Context, identifier string, status domain.UserStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status must be standard or admin", nil)
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	if _, err := s.users.UpdateFields(ctx, user.ID, domain.UserPatch{Status: &status}); err != nil {
		return nil, mapStoreError(err, "user")
	}
	user.Status = status

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserUpdated,
		SubjectID: user.ID,
		Payload:   events.UserUpdatedPayload{Fields: []string{"status"}},
	})
	return user, nil
}

func actorOf(p *auth.Principal) events.Actor {
	if p == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: p.UserID, Status: p.Status}
}
