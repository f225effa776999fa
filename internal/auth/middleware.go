package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Guard outcomes, also used as metric labels.
const (
	OutcomeAllowed      = "allowed"
	OutcomeNoToken      = "no_token"
	OutcomeInvalidToken = "invalid_token"
	OutcomeForbidden    = "forbidden"
)

// Denial reasons returned by Authenticate and Authorize.
var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Principal represents the authenticated caller with its current stored role.
type Principal struct {
	UserID   string
	Username string
	Status   domain.UserStatus
	User     *domain.User
}

// IsAdmin reports whether the caller currently holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Status.IsAdmin()
}

// UserLookup resolves the account a token claims to belong to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// DecisionRecorder receives one outcome per guarded request.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// Guard validates tokens and loads principals.
type Guard struct {
	tokens    *TokenManager
	users     UserLookup
	transport Transport
	metrics   DecisionRecorder
	logger    *zap.Logger
}

// NewGuard constructs the access guard.
func NewGuard(tokens *TokenManager, users UserLookup, transport Transport, metrics DecisionRecorder, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{tokens: tokens, users: users, transport: transport, metrics: metrics, logger: logger}
}

// Authenticate verifies token text and re-resolves the caller from the store.
// The status claim inside the token is ignored; the stored status is authoritative.
func (g *Guard) Authenticate(ctx context.Context, tokenText string) (*Principal, error) {
	if tokenText == "" {
		return nil, ErrNoToken
	}

	claims, err := g.tokens.ParseToken(tokenText)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		return nil, err
	}

	return &Principal{
		UserID:   user.ID,
		Username: user.Username,
		Status:   user.Status,
		User:     user,
	}, nil
}

// Authorize decides whether principal may proceed. Admin requirements are met only
// by the stored admin role; self access is met when self reports true.
func Authorize(principal *Principal, requireAdmin bool, self bool) error {
	if principal == nil {
		return ErrNoToken
	}
	if principal.IsAdmin() {
		return nil
	}
	if requireAdmin && !self {
		return ErrForbidden
	}
	return nil
}

// Handle enforces authentication for protected routes.
func (g *Guard) Handle(c *fiber.Ctx) error {
	principal, err := g.Authenticate(c.UserContext(), g.transport.Extract(c))
	if err != nil {
		return g.deny(c, err)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func (g *Guard) deny(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNoToken):
		g.record(OutcomeNoToken)
		g.logger.Debug("request denied", zap.String("reason", OutcomeNoToken), zap.String("path", c.Path()))
		return apperrors.NewDomainError("NO_TOKEN", "authentication token required", http.StatusUnauthorized, nil)
	case errors.Is(err, ErrInvalidToken):
		g.record(OutcomeInvalidToken)
		g.logger.Debug("request denied", zap.String("reason", OutcomeInvalidToken), zap.String("path", c.Path()), zap.Error(err))
		return apperrors.NewDomainError("INVALID_TOKEN", "invalid or expired token", http.StatusUnauthorized, nil)
	case errors.Is(err, ErrForbidden):
		g.record(OutcomeForbidden)
		g.logger.Debug("request denied", zap.String("reason", OutcomeForbidden), zap.String("path", c.Path()))
		return apperrors.NewForbidden("insufficient privileges")
	default:
		return apperrors.NewInternalError(err)
	}
}

func (g *Guard) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordAuthDecision(outcome)
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
