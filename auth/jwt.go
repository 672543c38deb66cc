package auth

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const anonymousName = "Player"

// Verifier validates JWTs signed by the identity provider at BaseURL, using the
// provider's JWKS. The key set is fetched once, on first use, and refreshed in the background.
type Verifier struct {
	BaseURL string
	// Methods lists accepted signing algorithms. Defaults to EdDSA.
	Methods []string

	mu      sync.Mutex
	keyfunc jwt.Keyfunc
}

// NewVerifier returns a Verifier for baseURL, or nil when baseURL is empty.
func NewVerifier(baseURL string) *Verifier {
	if baseURL == "" {
		return nil
	}
	return &Verifier{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Enabled reports whether tokens are required at all.
func (v *Verifier) Enabled() bool {
	return v != nil && v.BaseURL != ""
}

// Validate parses tokenString, checks signature, issuer and expiry, and returns its claims.
func (v *Verifier) Validate(tokenString string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, fmt.Errorf("auth base URL is not set")
	}
	u, err := url.Parse(v.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	expectedIssuer := u.Scheme + "://" + u.Host

	kf, err := v.keys()
	if err != nil {
		return nil, err
	}

	methods := v.Methods
	if len(methods) == 0 {
		methods = []string{"EdDSA"}
	}
	token, err := jwt.Parse(tokenString, kf,
		jwt.WithIssuer(expectedIssuer),
		jwt.WithValidMethods(methods))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// SetKeyfunc replaces the JWKS lookup, e.g. with a static key.
func (v *Verifier) SetKeyfunc(kf jwt.Keyfunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyfunc = kf
}

func (v *Verifier) keys() (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.keyfunc != nil {
		return v.keyfunc, nil
	}
	jwks, err := keyfunc.NewDefault([]string{v.BaseURL + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("loading JWKS: %w", err)
	}
	v.keyfunc = jwks.Keyfunc
	return v.keyfunc, nil
}

// DisplayNameFromClaims returns the first word of the "name" claim, or a fallback.
func DisplayNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return anonymousName
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
