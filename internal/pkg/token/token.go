package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL applies when Issue is called with a non-positive ttl.
const DefaultTTL = 15 * time.Minute

// ErrInvalid covers every verification failure: bad signature, wrong
// algorithm, malformed input, expired token. Callers must not be able
// to tell the cases apart.
var ErrInvalid = errors.New("invalid token")

type Claims struct {
	jwtlib.RegisteredClaims
}

// Issuer signs and verifies bearer tokens with a process-wide symmetric
// secret and a fixed HMAC algorithm. Both are set once at construction;
// rotating them invalidates every outstanding token.
type Issuer struct {
	secret []byte
	method jwtlib.SigningMethod
}

func NewIssuer(secret []byte, algorithm string) (*Issuer, error) {
	var method jwtlib.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		method = jwtlib.SigningMethodHS256
	case "HS384":
		method = jwtlib.SigningMethodHS384
	case "HS512":
		method = jwtlib.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing algorithm: " + algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	return &Issuer{secret: secret, method: method}, nil
}

// Issue mints a self-contained token with the given subject claim.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(i.method, claims).SignedString(i.secret)
}

// Verify checks signature and expiry and returns the subject. It never
// consults any store; correctness rests on the clock and the secret.
func (i *Issuer) Verify(tokenString string) (string, error) {
	parsed, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if t.Method.Alg() != i.method.Alg() {
			return nil, ErrInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		return "", ErrInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
