package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/config"
)

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims は発行するトークンのクレームです。subject にユーザー ID を格納します。
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwtv5.RegisteredClaims
}

// Manager は HS256 の Bearer トークンを発行、検証します。
type Manager struct {
	secret    []byte
	issuer    string
	adminRole string
	now       func() time.Time
}

// NewManager は Manager を生成します。
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		adminRole: cfg.AdminRole,
		now:       time.Now,
	}
}

// Issue は userID を subject とするトークンを発行します。
func (m *Manager) Issue(userID string, roles []string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("auth: user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("auth: ttl must be positive")
	}

	now := m.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse はトークンの署名、発行者、有効期限を検証してクレームを返します。
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(*jwtv5.Token) (any, error) {
		return m.secret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(m.issuer),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Actor はクレームを操作の実行者に変換します。
func (m *Manager) Actor(claims *Claims) probation.Actor {
	return probation.Actor{
		UserID: claims.Subject,
		Admin:  m.adminRole != "" && slices.Contains(claims.Roles, m.adminRole),
	}
}

// Authenticate は Authorization ヘッダーの値を検証し、実行者を返します。
func (m *Manager) Authenticate(header string) (probation.Actor, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return probation.Actor{}, ErrMissingToken
	}

	claims, err := m.Parse(strings.TrimSpace(token))
	if err != nil {
		return probation.Actor{}, err
	}
	return m.Actor(claims), nil
}
