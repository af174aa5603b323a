package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the two token roles minted per issuance.
type TokenKind string

const (
	// KindAccess is a short-lived token authorizing protected requests.
	KindAccess TokenKind = "access"
	// KindRefresh is a long-lived, one-time-rotatable token.
	KindRefresh TokenKind = "refresh"
)

// Claims is the verified identity envelope carried by a token.
type Claims struct {
	UserID    string
	DeviceID  string
	TokenID   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a signed token together with its id and expiry.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenPair is the result of a single issuance: one access and one refresh
// token, both bound to the same (user, device) pair.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// TokenIssuer mints and verifies device-bound token pairs.
//
// Verify performs only the stateless checks: signature, expiry, and token
// kind. Stateful checks (revocation, current-refresh-id match) belong to the
// Service.
type TokenIssuer interface {
	Issue(userID, deviceID string, now time.Time) (TokenPair, error)
	Verify(token string, kind TokenKind, now time.Time) (Claims, error)
}

type jwtClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"did"`
	Kind     string `json:"typ"`
}

type hs256Issuer struct {
	issuer     string
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clockSkew  time.Duration
}

// NewHS256Issuer builds a TokenIssuer signing JWTs with HMAC-SHA256.
//
// Token ids are random UUIDv4 (128 bits of entropy) so superseded and revoked
// tokens can be tracked by id without storing the token itself.
func NewHS256Issuer(cfg Config) (TokenIssuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrConfig
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, ErrConfig
	}

	return &hs256Issuer{
		issuer:     cfg.Issuer,
		secret:     cfg.Secret,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		clockSkew:  cfg.ClockSkew,
	}, nil
}

func (m *hs256Issuer) Issue(userID, deviceID string, now time.Time) (TokenPair, error) {
	access, err := m.sign(userID, deviceID, KindAccess, now, now.Add(m.accessTTL))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(userID, deviceID, KindRefresh, now, now.Add(m.refreshTTL))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *hs256Issuer) sign(userID, deviceID string, kind TokenKind, now, exp time.Time) (IssuedToken, error) {
	id := uuid.NewString()

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		DeviceID: deviceID,
		Kind:     string(kind),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Token: signed, ID: id, ExpiresAt: exp}, nil
}

func (m *hs256Issuer) Verify(token string, kind TokenKind, now time.Time) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrTokenMalformed
	}
	if claims.Kind != string(kind) {
		return Claims{}, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.DeviceID == "" || claims.ID == "" {
		return Claims{}, ErrTokenMalformed
	}

	out := Claims{
		UserID:   claims.Subject,
		DeviceID: claims.DeviceID,
		TokenID:  claims.ID,
		Kind:     kind,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
