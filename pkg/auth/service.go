package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/theapemachine/ukg/pkg/errors"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Config configures token issuing and request limits.
type Config struct {
	Secret       string
	Issuer       string
	TokenTTL     time.Duration
	RefreshTTL   time.Duration
	RateLimit    int64
	RateInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Issuer:       "ukg",
		TokenTTL:     time.Hour,
		RefreshTTL:   24 * time.Hour,
		RateLimit:    100,
		RateInterval: time.Minute,
	}
}

// Claims are the JWT claims of API tokens.
type Claims struct {
	Kind   string   `json:"kind"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope.
func (claims *Claims) HasScope(scope string) bool {
	for _, s := range claims.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}

	return false
}

// TokenInfo is an issued access token and its refresh token.
type TokenInfo struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	Scheme       string    `json:"scheme"`
}

// Service issues and verifies HS256 bearer tokens and rate limits callers.
type Service struct {
	mu         sync.RWMutex
	cfg        Config
	signingKey []byte
	revoked    map[string]time.Time
	limiters   *Limiters
}

func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.ErrUnauthorized.WithMessagef("auth requires a signing secret")
	}

	defaults := DefaultConfig()

	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}

	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaults.RefreshTTL
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaults.RateLimit
	}

	if cfg.RateInterval <= 0 {
		cfg.RateInterval = defaults.RateInterval
	}

	return &Service{
		cfg:        cfg,
		signingKey: []byte(cfg.Secret),
		revoked:    map[string]time.Time{},
		limiters:   NewLimiters(cfg.RateLimit, cfg.RateInterval),
	}, nil
}

func (s *Service) getSigningKey(token *jwt.Token) (any, error) {
	return s.signingKey, nil
}

// GenerateToken issues an access token for subject and a matching refresh token.
func (s *Service) GenerateToken(subject string, scopes ...string) (*TokenInfo, error) {
	now := time.Now()
	expires := now.Add(s.cfg.TokenTTL)

	token, err := s.sign(Claims{Kind: kindAccess, Scopes: scopes, RegisteredClaims: s.registered(subject, now, expires)})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(Claims{Kind: kindRefresh, Scopes: scopes, RegisteredClaims: s.registered(subject, now, now.Add(s.cfg.RefreshTTL))})
	if err != nil {
		return nil, err
	}

	return &TokenInfo{Token: token, ExpiresAt: expires, RefreshToken: refresh, Scheme: "Bearer"}, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The old
// refresh token is revoked.
func (s *Service) RefreshToken(refreshToken string) (*TokenInfo, error) {
	claims, err := s.parse(refreshToken, kindRefresh)
	if err != nil {
		return nil, err
	}

	s.revoke(claims)
	return s.GenerateToken(claims.Subject, claims.Scopes...)
}

// RevokeToken rejects token from now on.
func (s *Service) RevokeToken(token string) error {
	claims, err := s.parse(token, "")
	if err != nil {
		return err
	}

	s.revoke(claims)
	return nil
}

// Authenticate checks the Authorization header of a request from client.
func (s *Service) Authenticate(header, client string) (*Claims, error) {
	if !s.limiters.Allow(client) {
		return nil, errors.ErrRateLimited.WithMessagef("rate limit exceeded for %s", client)
	}

	if header == "" {
		return nil, errors.ErrUnauthorized.WithMessagef("missing authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, errors.ErrUnauthorized.WithMessagef("authorization scheme must be Bearer")
	}

	return s.parse(strings.TrimSpace(token), kindAccess)
}

func (s *Service) registered(subject string, now, expires time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.cfg.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
}

func (s *Service) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", errors.ErrUnauthorized.WithMessagef("failed to sign token").Wrap(err)
	}

	return signed, nil
}

// parse verifies a token; kind may be empty to accept either kind.
func (s *Service) parse(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenStr, claims, s.getSigningKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, errors.ErrUnauthorized.WithMessagef("invalid token: %v", err).Wrap(err)
	}

	if kind != "" && claims.Kind != kind {
		return nil, errors.ErrUnauthorized.WithMessagef("expected a %s token", kind)
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()

	if revoked {
		return nil, errors.ErrUnauthorized.WithMessagef("token has been revoked")
	}

	return claims, nil
}

func (s *Service) revoke(claims *Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for id, until := range s.revoked {
		if until.Before(now) {
			delete(s.revoked, id)
		}
	}

	s.revoked[claims.ID] = claims.ExpiresAt.Time
}
