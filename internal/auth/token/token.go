package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/frontdesk/internal/auth/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/zap"
)

const (
	TokenType         = "Bearer"
	defaultExpiration = 24 * time.Hour
)

// Claims identify an operator by username in sub.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 operator tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	clock      clock.Clock
}

func NewIssuer(secret []byte, issuer string, expiration time.Duration, clk clock.Clock) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if expiration <= 0 {
		expiration = defaultExpiration
	}
	return &Issuer{secret: secret, issuer: issuer, expiration: expiration, clock: clk}, nil
}

// Provide builds the issuer from config. Outside production an empty secret
// is replaced by a random per-process one.
func Provide(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Issuer, error) {
	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("AUTH_JWT_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral secret")
	}
	return NewIssuer([]byte(secret), cfg.Auth.JWTIssuer, time.Duration(cfg.Auth.JWTExpirationHours)*time.Hour, clk)
}

func (i *Issuer) Issue(subject string) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify maps every failure to ErrTokenExpired or ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, domain.ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
