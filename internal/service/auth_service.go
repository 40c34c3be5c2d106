package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/config"
	"github.com/faraddouglas/conecsa-api/internal/domain"
	"github.com/faraddouglas/conecsa-api/internal/events"
	"github.com/faraddouglas/conecsa-api/internal/mail"
	"github.com/faraddouglas/conecsa-api/internal/repository"
	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

const (
	forgetSubject  = "Password recovery"
	forgetTemplate = "forget"
)

// AuthService coordinates login, registration and the password reset handshake.
type AuthService struct {
	users         repository.UserRepository
	ledger        repository.ResetLedger
	mailer        mail.Mailer
	dispatcher    events.Dispatcher
	hasher        *auth.Hasher
	tokenMgr      *auth.TokenManager
	logger        *zap.Logger
	revealUnknown bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	ResetLedger repository.ResetLedger
	Mailer      mail.Mailer
	Dispatcher  events.Dispatcher
	Hasher      *auth.Hasher
	Logger      *zap.Logger
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	BirthAt  *time.Time
}

// AuthResult is a session token issued for a user.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(cfg.Auth.BcryptCost)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		ledger:     deps.ResetLedger,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		hasher:     hasher,
		tokenMgr: auth.NewTokenManager(auth.TokenConfig{
			Secret:        cfg.Auth.JWTSecret,
			SessionIssuer: cfg.Auth.SessionIssuer,
			Audience:      cfg.Auth.Audience,
			SessionTTL:    cfg.Auth.SessionTTL,
			ResetTTL:      cfg.Auth.ResetTTL,
		}),
		logger:        logger,
		revealUnknown: cfg.Auth.RevealUnknownEmail,
	}
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		s.hasher.EqualizeMiss(password)
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, Email: email, Reason: "unknown_email"})
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, UserID: user.ID, Email: user.Email, Reason: "password_mismatch"})
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, UserID: user.ID, Email: user.Email})
	return result, nil
}

// Register creates an ordinary user account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	hash, err := s.hashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		BirthAt:      input.BirthAt,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventUserRegistered, UserID: user.ID, Email: user.Email})
	return result, nil
}

// Forget mails a password reset token to the account registered under email.
func (s *AuthService) Forget(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if s.revealUnknown {
			return apperrors.NewUnauthorized("email not registered")
		}
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}

	token, expiresAt, err := s.tokenMgr.IssueReset(user)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  forgetSubject,
		Template: forgetTemplate,
		Context: map[string]any{
			"name":  user.Name,
			"token": token,
		},
	})
	if err != nil {
		s.logger.Error("reset mail delivery failed", zap.String("user_id", user.ID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventPasswordResetRequested,
		UserID:  user.ID,
		Email:   user.Email,
		Payload: map[string]any{"expires_at": expiresAt},
	})
	return nil
}

// Reset sets a new password using a reset token and signs the user in.
func (s *AuthService) Reset(ctx context.Context, newPassword, resetToken string) (*AuthResult, error) {
	claims, err := s.tokenMgr.Verify(resetToken, s.tokenMgr.ResetScope())
	if err != nil {
		s.logger.Debug("reset token rejected", zap.Error(err))
		s.publish(ctx, events.Event{Type: events.EventPasswordResetRejected, Reason: "invalid_token"})
		return nil, apperrors.NewBadRequest("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		s.publish(ctx, events.Event{Type: events.EventPasswordResetRejected, Reason: "malformed_subject"})
		return nil, apperrors.NewBadRequest("invalid token")
	}

	hash, err := s.hashPassword(ctx, newPassword)
	if err != nil {
		return nil, err
	}

	fresh, err := s.ledger.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !fresh {
		s.publish(ctx, events.Event{Type: events.EventPasswordResetRejected, UserID: userID.String(), Reason: "token_reused"})
		return nil, apperrors.NewBadRequest("invalid token")
	}

	user, err := s.users.UpdatePassword(ctx, userID.String(), hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewBadRequest("invalid token")
		}
		return nil, apperrors.MapError(err)
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventPasswordResetCompleted, UserID: user.ID, Email: user.Email})
	return result, nil
}

// Me returns the verified token payload and the stored identity of the caller.
func (s *AuthService) Me(principal *auth.Principal) (*auth.Claims, *domain.User, error) {
	if principal == nil || principal.Claims == nil || principal.User == nil {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Claims, principal.User, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) session(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.IssueSession(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyPassword) {
			return "", apperrors.NewValidationError("invalid payload", map[string]any{"password": "cannot be blank"})
		}
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
