package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer         = "aqlhr"
	secretEnvVar   = "AUTH_JWT_SECRET"
	minSecretBytes = 16
)

var (
	ErrMissingSecret = errors.New("authn: AUTH_JWT_SECRET is not configured")
	ErrInvalidToken  = errors.New("authn: invalid token")
)

// Claims carries the caller identity. Subject is the user id; EmployeeID is
// the caller's own employee record when one exists.
type Claims struct {
	Role       string `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller. The zero value is the anonymous session.
type Session struct {
	UserID     string
	Role       string
	EmployeeID string
}

func (s Session) Anonymous() bool { return s.UserID == "" }

// ActorID is the id scope filters bind to: the employee record when known,
// otherwise the user id.
func (s Session) ActorID() string {
	if s.EmployeeID != "" {
		return s.EmployeeID
	}
	return s.UserID
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("authn: secret must be at least %d bytes", minSecretBytes)
	}
	return &Verifier{secret: secret, now: time.Now}, nil
}

func SecretFromEnv() ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(secretEnvVar))
	if v == "" {
		return nil, ErrMissingSecret
	}
	return []byte(v), nil
}

func NewVerifierFromEnv() (*Verifier, error) {
	secret, err := SecretFromEnv()
	if err != nil {
		return nil, err
	}
	return NewVerifier(secret)
}

// Issue signs an HS256 session token.
func (v *Verifier) Issue(s Session, ttl time.Duration) (string, error) {
	userID := strings.TrimSpace(s.UserID)
	if userID == "" {
		return "", errors.New("authn: user id is required")
	}
	if ttl <= 0 {
		return "", errors.New("authn: ttl must be greater than zero")
	}
	now := v.now().UTC()
	claims := Claims{
		Role:       strings.ToLower(strings.TrimSpace(s.Role)),
		EmployeeID: strings.TrimSpace(s.EmployeeID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("authn: sign token: %w", err)
	}
	return signed, nil
}

func (v *Verifier) Verify(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{
		UserID:     strings.TrimSpace(claims.Subject),
		Role:       strings.ToLower(strings.TrimSpace(claims.Role)),
		EmployeeID: strings.TrimSpace(claims.EmployeeID),
	}, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// SessionFromRequest returns the anonymous session when the request carries
// no token and ErrInvalidToken when it carries a bad one.
func (v *Verifier) SessionFromRequest(r *http.Request) (Session, error) {
	tok := BearerToken(r)
	if tok == "" {
		return Session{}, nil
	}
	return v.Verify(tok)
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

func CurrentSession(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionContextKey{})
	if v == nil {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
