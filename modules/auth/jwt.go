package auth

import (
	"errors"
	"time"

	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret is returned when a signing secret is not configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrSharedSecret is returned when access and refresh tokens would share a secret.
	ErrSharedSecret = errors.New("access and refresh secrets must differ")
)

// TokenConfig holds token signing configuration.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// DefaultTokenConfig returns the token lifetimes with empty secrets.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
		Issuer:     "jobboard-auth",
	}
}

// AccessClaims are embedded in access tokens.
type AccessClaims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in refresh tokens.
type RefreshClaims struct {
	UserID  string `json:"id"`
	Version int    `json:"ver"`
	jwt.RegisteredClaims
}

// Outcome is the result tag of a token verification.
type Outcome int

const (
	TokenInvalid Outcome = iota
	TokenValid
	TokenExpired
)

func (o Outcome) String() string {
	switch o {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// ParseOutcome is the inverse of Outcome.String. Unknown values are invalid.
func ParseOutcome(s string) Outcome {
	switch s {
	case "valid":
		return TokenValid
	case "expired":
		return TokenExpired
	default:
		return TokenInvalid
	}
}

// AccessVerification is the outcome of verifying an access token.
// Claims is set only when Outcome is TokenValid.
type AccessVerification struct {
	Outcome Outcome
	Claims  *AccessClaims
}

// RefreshVerification is the outcome of verifying a refresh token.
// Claims is set only when Outcome is TokenValid.
type RefreshVerification struct {
	Outcome Outcome
	Claims  *RefreshClaims
}

// TokenIssuer signs and verifies access and refresh tokens. Each token kind
// has its own secret.
type TokenIssuer struct {
	config        TokenConfig
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. It fails when a secret is missing.
func NewTokenIssuer(config TokenConfig) (*TokenIssuer, error) {
	if config.AccessSecret == "" || config.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if config.AccessSecret == config.RefreshSecret {
		return nil, ErrSharedSecret
	}

	defaults := DefaultTokenConfig()
	if config.AccessTTL <= 0 {
		config.AccessTTL = defaults.AccessTTL
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = defaults.RefreshTTL
	}
	if config.Issuer == "" {
		config.Issuer = defaults.Issuer
	}

	return &TokenIssuer{
		config:        config,
		accessSecret:  []byte(config.AccessSecret),
		refreshSecret: []byte(config.RefreshSecret),
		now:           time.Now,
	}, nil
}

// IssueAccessToken signs an access token for the identity.
func (m *TokenIssuer) IssueAccessToken(identity *domain.Identity) (string, error) {
	claims := AccessClaims{
		UserID:           identity.ID,
		Email:            identity.Email,
		Role:             identity.Role,
		RegisteredClaims: m.registered(identity.ID, m.config.AccessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// IssueRefreshToken signs a refresh token for the user at the given token version.
func (m *TokenIssuer) IssueRefreshToken(userID string, version int) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		Version:          version,
		RegisteredClaims: m.registered(userID, m.config.RefreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}

// IssuePair signs both tokens for the user.
func (m *TokenIssuer) IssuePair(u *domain.User) (*domain.TokenPair, error) {
	access, err := m.IssueAccessToken(u.Identity())
	if err != nil {
		return nil, err
	}
	refresh, err := m.IssueRefreshToken(u.ID, u.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// VerifyAccess checks an access token against the access secret.
func (m *TokenIssuer) VerifyAccess(tokenString string) AccessVerification {
	claims := &AccessClaims{}
	outcome := m.verify(tokenString, claims, m.accessSecret)
	if outcome != TokenValid || claims.UserID == "" {
		if outcome == TokenValid {
			outcome = TokenInvalid
		}
		return AccessVerification{Outcome: outcome}
	}
	return AccessVerification{Outcome: TokenValid, Claims: claims}
}

// VerifyRefresh checks a refresh token against the refresh secret.
func (m *TokenIssuer) VerifyRefresh(tokenString string) RefreshVerification {
	claims := &RefreshClaims{}
	outcome := m.verify(tokenString, claims, m.refreshSecret)
	if outcome != TokenValid || claims.UserID == "" {
		if outcome == TokenValid {
			outcome = TokenInvalid
		}
		return RefreshVerification{Outcome: outcome}
	}
	return RefreshVerification{Outcome: TokenValid, Claims: claims}
}

// AccessTTL returns the access token lifetime.
func (m *TokenIssuer) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL returns the refresh token lifetime.
func (m *TokenIssuer) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

func (m *TokenIssuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    m.config.Issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func (m *TokenIssuer) verify(tokenString string, claims jwt.Claims, secret []byte) Outcome {
	if tokenString == "" {
		return TokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenExpired
		}
		return TokenInvalid
	}
	if !token.Valid {
		return TokenInvalid
	}
	return TokenValid
}
