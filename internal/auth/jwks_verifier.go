package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vibewear/api/internal/config"
)

const discoveryTimeout = 30 * time.Second

// Zitadel signs with RSA or EC keys; HMAC tokens never reach this verifier.
var providerSigningMethods = []string{"RS256", "RS384", "RS512", "PS256", "ES256", "ES384"}

// TokenVerifier validates tokens minted by the identity provider.
type TokenVerifier interface {
	Validate(tokenString string) (*Claims, error)
	Close() error
}

// Claims are the Zitadel access-token claims the API reads.
type Claims struct {
	UserID        string `json:"sub"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWKSVerifier checks provider tokens against the issuer's published keys.
// Issuer, expiry, signing method and (when a client ID is set) audience are
// enforced by the parser.
type JWKSVerifier struct {
	keys   jwt.Keyfunc
	parser *jwt.Parser
	stop   context.CancelFunc
}

// NewJWKSVerifier finds the key set through OIDC discovery. keyfunc keeps the
// keys fresh in the background until Close.
func NewJWKSVerifier(ctx context.Context, cfg *config.ZitadelConfig) (*JWKSVerifier, error) {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	if issuer == "" {
		return nil, errors.New("zitadel issuer is required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()
	doc, err := discover(lookupCtx, http.DefaultClient, issuer)
	if err != nil {
		return nil, err
	}

	refreshCtx, stop := context.WithCancel(context.Background())
	set, err := keyfunc.NewDefaultCtx(refreshCtx, []string{doc.JWKSURI})
	if err != nil {
		stop()
		return nil, fmt.Errorf("load key set %s: %w", doc.JWKSURI, err)
	}

	v := newJWKSVerifier(set.Keyfunc, issuer, cfg.ClientID)
	v.stop = stop
	return v, nil
}

func newJWKSVerifier(keys jwt.Keyfunc, issuer, audience string) *JWKSVerifier {
	opts := []jwt.ParserOption{
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods(providerSigningMethods),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWKSVerifier{keys: keys, parser: jwt.NewParser(opts...), stop: func() {}}
}

type discoveryDocument struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

func discover(ctx context.Context, httpClient *http.Client, issuer string) (*discoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oidc discovery: status %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("oidc discovery: decode: %w", err)
	}
	switch {
	case doc.JWKSURI == "":
		return nil, errors.New("oidc discovery: no jwks_uri")
	case doc.Issuer != "" && strings.TrimSuffix(doc.Issuer, "/") != issuer:
		return nil, fmt.Errorf("oidc discovery: issuer %q does not match %q", doc.Issuer, issuer)
	}
	return &doc, nil
}

func (v *JWKSVerifier) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.keys); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("verify token: %w", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// Close stops the background key refresh.
func (v *JWKSVerifier) Close() error {
	v.stop()
	return nil
}
