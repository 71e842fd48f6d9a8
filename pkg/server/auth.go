package server

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"mercator-hq/opgraph/pkg/config"
)

// APIKey is an accepted client credential.
type APIKey struct {
	Name    string
	Enabled bool
}

// KeySet validates API keys by digest so that secret values are not kept
// in memory after construction.
type KeySet struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]*APIKey
}

// NewKeySet builds a KeySet from configuration. Keys of the form
// "env:NAME" are read from the environment.
func NewKeySet(keys []config.APIKeyConfig) (*KeySet, error) {
	ks := &KeySet{keys: make(map[[sha256.Size]byte]*APIKey, len(keys))}
	for _, k := range keys {
		secret, err := resolveKey(k.Key)
		if err != nil {
			return nil, fmt.Errorf("api key %q: %w", k.Name, err)
		}
		ks.Add(k.Name, secret, !k.Disabled)
	}
	return ks, nil
}

func resolveKey(v string) (string, error) {
	name, ok := strings.CutPrefix(v, "env:")
	if !ok {
		return v, nil
	}
	secret := os.Getenv(name)
	if secret == "" {
		return "", fmt.Errorf("environment variable %s is empty", name)
	}
	return secret, nil
}

// Add registers a key, replacing any key with the same secret.
func (ks *KeySet) Add(name, secret string, enabled bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	d := sha256.Sum256([]byte(secret))
	ks.keys[d] = &APIKey{Name: name, Enabled: enabled}
}

// Validate returns the key matching secret.
func (ks *KeySet) Validate(secret string) (*APIKey, error) {
	d := sha256.Sum256([]byte(secret))

	ks.mu.RLock()
	key, ok := ks.keys[d]
	ks.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("invalid API key")
	}
	if !key.Enabled {
		return nil, fmt.Errorf("API key %s is disabled", key.Name)
	}
	return key, nil
}

// Len returns the number of registered keys.
func (ks *KeySet) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}

type clientKey struct{}

// WithClient stores the authenticated client name in ctx.
func WithClient(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, clientKey{}, name)
}

// GetClient returns the authenticated client name, or "".
func GetClient(ctx context.Context) string {
	name, _ := ctx.Value(clientKey{}).(string)
	return name
}

// authenticate rejects requests without a valid key in header.
func authenticate(keys *KeySet, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := extractKey(r, header)
			if secret == "" {
				logger.WarnContext(r.Context(), "missing API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="opgraph"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing API key", nil)
				return
			}

			key, err := keys.Validate(secret)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected API key",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid API key", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), key.Name)))
		})
	}
}

func extractKey(r *http.Request, header string) string {
	v := strings.TrimSpace(r.Header.Get(header))
	if strings.EqualFold(header, "Authorization") {
		if rest, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
		return ""
	}
	return v
}
