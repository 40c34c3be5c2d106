package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/faraddouglas/conecsa-api/internal/domain"
)

// ResetIssuer tags password reset tokens.
const ResetIssuer = "forget"

var (
	// ErrInvalidToken covers bad signatures, wrong scope, expiry and malformed input.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnscoped is returned when an issue or verify call does not pin both issuer and audience.
	ErrUnscoped = errors.New("token scope requires issuer and audience")
)

// Scope is the issuer/audience pair that tags a token's purpose.
type Scope struct {
	Issuer   string
	Audience string
}

func (s Scope) complete() bool {
	return s.Issuer != "" && s.Audience != ""
}

// IssueOptions controls the registered claims of an issued token.
type IssueOptions struct {
	Scope
	Subject   string
	ExpiresIn time.Duration
}

// Claims describes the JWT payload.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret        string
	SessionIssuer string
	Audience      string
	SessionTTL    time.Duration
	ResetTTL      time.Duration
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	session    Scope
	reset      Scope
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.SessionIssuer == "" {
		cfg.SessionIssuer = "session"
	}
	if cfg.Audience == "" {
		cfg.Audience = "users"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 30 * time.Minute
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		session:    Scope{Issuer: cfg.SessionIssuer, Audience: cfg.Audience},
		reset:      Scope{Issuer: ResetIssuer, Audience: cfg.Audience},
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.ResetTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	if now != nil {
		tm.now = now
	}
	return tm
}

// SessionScope returns the scope session tokens are issued and verified with.
func (tm *TokenManager) SessionScope() Scope {
	return tm.session
}

// ResetScope returns the scope reset tokens are issued and verified with.
func (tm *TokenManager) ResetScope() Scope {
	return tm.reset
}

// Issue signs claims with the registered claims described by opts.
func (tm *TokenManager) Issue(claims Claims, opts IssueOptions) (string, time.Time, error) {
	if !opts.Scope.complete() {
		return "", time.Time{}, ErrUnscoped
	}
	if opts.ExpiresIn <= 0 {
		return "", time.Time{}, errors.New("token expiry must be positive")
	}

	now := tm.now()
	expiresAt := now.Add(opts.ExpiresIn)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    opts.Issuer,
		Audience:  jwt.ClaimStrings{opts.Audience},
		Subject:   opts.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// IssueSession issues the long lived token identifying user.
func (tm *TokenManager) IssueSession(user *domain.User) (string, time.Time, error) {
	return tm.Issue(Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}, IssueOptions{Scope: tm.session, Subject: user.ID, ExpiresIn: tm.sessionTTL})
}

// IssueReset issues the short lived token that authorizes one password reset for user.
func (tm *TokenManager) IssueReset(user *domain.User) (string, time.Time, error) {
	return tm.Issue(Claims{UserID: user.ID}, IssueOptions{Scope: tm.reset, Subject: user.ID, ExpiresIn: tm.resetTTL})
}

// Verify validates signature, expiry and exact issuer/audience, returning the claims.
func (tm *TokenManager) Verify(tokenStr string, scope Scope) (*Claims, error) {
	if !scope.complete() {
		return nil, ErrUnscoped
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(scope.Issuer),
		jwt.WithAudience(scope.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsValid reports whether tokenStr is a currently valid session token.
func (tm *TokenManager) IsValid(tokenStr string) bool {
	_, err := tm.Verify(tokenStr, tm.session)
	return err == nil
}
