package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"go.uber.org/zap"
)

type contextKey string

const trainerIDKey contextKey = "trainer_id"

// TrainerIDHeader stands in for a bearer token when the dev header is
// enabled and no tenant is configured.
const TrainerIDHeader = "X-Trainer-Id"

const jwksRefreshInterval = time.Minute

// TrainerIDFromContext returns the authenticated trainer id.
func TrainerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(trainerIDKey).(string)
	return id
}

// WithTrainerID returns ctx carrying trainerID.
func WithTrainerID(ctx context.Context, trainerID string) context.Context {
	return context.WithValue(ctx, trainerIDKey, trainerID)
}

// TrainerIDFromSubject turns an identity provider subject such as
// "google-oauth2|1234" into the id the backend stores ("google-oauth2_1234").
func TrainerIDFromSubject(sub string) string {
	return strings.ReplaceAll(sub, "|", "_")
}

type AuthConfig struct {
	// Domain is the Auth0 tenant host, e.g. "example.auth0.com".
	Domain   string
	ClientID string

	// JWKSURL defaults to https://<Domain>/.well-known/jwks.json.
	JWKSURL string

	// DevHeader accepts TrainerIDHeader, but only while Domain and
	// ClientID are unset.
	DevHeader bool
	Logger    *zap.Logger
}

// Auth validates bearer tokens against the tenant's JWKS.
type Auth struct {
	issuer    string
	audience  string
	jwksURL   string
	devHeader bool
	logger    *zap.SugaredLogger

	mu          sync.RWMutex
	keys        jwk.Set
	lastRefresh time.Time
}

func NewAuth(cfg AuthConfig) *Auth {
	a := &Auth{
		audience:  cfg.ClientID,
		jwksURL:   cfg.JWKSURL,
		devHeader: cfg.DevHeader,
		logger:    cfg.Logger.Sugar(),
	}
	if cfg.Domain != "" {
		a.issuer = "https://" + strings.TrimSuffix(cfg.Domain, "/") + "/"
		if a.jwksURL == "" {
			a.jwksURL = a.issuer + ".well-known/jwks.json"
		}
	}
	return a
}

// Configured reports whether bearer tokens can be verified.
func (a *Auth) Configured() bool {
	return a.jwksURL != "" && a.audience != ""
}

func (a *Auth) refreshKeys(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set, err := jwk.Fetch(ctx, a.jwksURL)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	a.mu.Lock()
	a.keys = set
	a.lastRefresh = time.Now()
	a.mu.Unlock()
	return nil
}

func (a *Auth) lookupKey(ctx context.Context, kid string) (interface{}, error) {
	find := func() (interface{}, error) {
		a.mu.RLock()
		set := a.keys
		a.mu.RUnlock()
		if set == nil {
			return nil, errors.New("JWKS not loaded")
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("key %s not found in JWKS", kid)
		}
		var raw interface{}
		if err := jwk.Export(key, &raw); err != nil {
			return nil, fmt.Errorf("export key: %w", err)
		}
		return raw, nil
	}

	key, err := find()
	if err == nil {
		return key, nil
	}

	a.mu.RLock()
	stale := time.Since(a.lastRefresh) > jwksRefreshInterval
	a.mu.RUnlock()
	if !stale {
		return nil, err
	}
	if err := a.refreshKeys(ctx); err != nil {
		a.logger.Warnw("JWKS refresh failed", "error", err)
		return nil, err
	}
	return find()
}

// Verify parses a bearer token and returns the trainer id from its subject.
func (a *Auth) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("token missing kid header")
		}
		return a.lookupKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"}),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return TrainerIDFromSubject(sub), nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on websocket upgrades
	if websocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// Middleware puts the trainer id into the request context or rejects the
// request. With the dev header enabled and no tenant configured, the
// X-Trainer-Id header is accepted as is.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.devHeader && !a.Configured() {
			if id := r.Header.Get(TrainerIDHeader); id != "" {
				next.ServeHTTP(w, r.WithContext(WithTrainerID(r.Context(), TrainerIDFromSubject(id))))
				return
			}
		}

		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		if !a.Configured() {
			writeAuthError(w, http.StatusServiceUnavailable, "Authentication not configured")
			return
		}

		trainerID, err := a.Verify(r.Context(), token)
		if err != nil {
			a.logger.Debugw("Token rejected", "error", err)
			writeAuthError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTrainerID(r.Context(), trainerID)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
