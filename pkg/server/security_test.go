package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/opgraph/pkg/config"
)

func withAuth(cfg *config.Config) {
	cfg.Server.Auth = config.AuthConfig{
		Enabled: true,
		Header:  "Authorization",
		Keys: []config.APIKeyConfig{
			{Name: "ci", Key: "secret-ci"},
			{Name: "old", Key: "secret-old", Disabled: true},
		},
	}
}

func TestAuth(t *testing.T) {
	t.Setenv("OPGRAPH_TEST_OPS_KEY", "secret-ops")
	f := newFixture(t, withAuth, func(cfg *config.Config) {
		cfg.Server.Auth.Keys = append(cfg.Server.Auth.Keys, config.APIKeyConfig{Name: "ops", Key: "env:OPGRAPH_TEST_OPS_KEY"})
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/v1/trees", "", http.StatusUnauthorized},
		{"wrong scheme", "/v1/trees", "Basic secret-ci", http.StatusUnauthorized},
		{"unknown", "/v1/trees", "Bearer nope", http.StatusUnauthorized},
		{"disabled", "/v1/trees", "Bearer secret-old", http.StatusUnauthorized},
		{"valid", "/v1/trees", "Bearer secret-ci", http.StatusOK},
		{"from env", "/v1/trees", "Bearer secret-ops", http.StatusOK},
		{"health is open", "/healthz", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Code == http.StatusUnauthorized {
				body := decode[ErrorBody](t, rec)
				if body.Error.Code != CodeUnauthorized {
					t.Errorf("code = %q, want %q", body.Error.Code, CodeUnauthorized)
				}
			}
		})
	}
}

func TestAuth_CustomHeader(t *testing.T) {
	f := newFixture(t, withAuth, func(cfg *config.Config) {
		cfg.Server.Auth.Header = "X-API-Key"
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/trees", nil)
	req.Header.Set("X-API-Key", "secret-ci")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestNewKeySet_MissingEnv(t *testing.T) {
	_, err := NewKeySet([]config.APIKeyConfig{{Name: "ops", Key: "env:OPGRAPH_TEST_UNSET_KEY"}})
	if err == nil {
		t.Fatal("NewKeySet() should fail for an empty environment variable")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 2, Burst: 2, IdleTimeout: time.Minute})
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	ok, wait := rl.Allow("a")
	if ok {
		t.Fatal("request over burst allowed")
	}
	if wait != 500*time.Millisecond {
		t.Errorf("wait = %v, want 500ms", wait)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Error("separate client should have its own bucket")
	}

	now = now.Add(500 * time.Millisecond)
	if ok, _ := rl.Allow("a"); !ok {
		t.Error("request after refill rejected")
	}

	now = now.Add(2 * time.Minute)
	rl.Allow("c")
	if got := rl.Clients(); got != 1 {
		t.Errorf("Clients() = %d after idle sweep, want 1", got)
	}
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	if rl := NewRateLimiter(config.RateLimitConfig{}); rl != nil {
		t.Error("NewRateLimiter() with zero rate should return nil")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	f := newFixture(t, withAuth, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, IdleTimeout: time.Minute}
	})

	get := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/trees", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)
		return rec
	}

	if rec := get("secret-ci"); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}
	rec := get("secret-ci")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if body := decode[ErrorBody](t, rec); body.Error.Code != CodeRateLimited {
		t.Errorf("code = %q, want %q", body.Error.Code, CodeRateLimited)
	}

	if got := f.server.limiter.Clients(); got != 1 {
		t.Errorf("Clients() = %d, want 1", got)
	}
}

func writeCert(t *testing.T, dir, cn string, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return certFile, keyFile
}

func TestCertReloader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "first", time.Now().Add(90*24*time.Hour))

	r, err := NewCertReloader(certFile, keyFile, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	if cn := r.Certificate().Leaf.Subject.CommonName; cn != "first" {
		t.Errorf("CommonName = %q, want first", cn)
	}
	if r.changed() {
		t.Error("changed() = true right after load")
	}

	writeCert(t, dir, "second", time.Now().Add(90*24*time.Hour))
	future := time.Now().Add(time.Minute)
	for _, p := range []string{certFile, keyFile} {
		if err := os.Chtimes(p, future, future); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
	}
	if !r.changed() {
		t.Fatal("changed() = false after rewrite")
	}
	if err := r.reload(); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	c, err := r.GetCertificate(nil)
	if err != nil {
		t.Fatalf("GetCertificate() error = %v", err)
	}
	if cn := c.Leaf.Subject.CommonName; cn != "second" {
		t.Errorf("CommonName = %q, want second", cn)
	}
}

func TestCertReloader_Expired(t *testing.T) {
	certFile, keyFile := writeCert(t, t.TempDir(), "old", time.Now().Add(-time.Minute))
	if _, err := NewCertReloader(certFile, keyFile, 0, nil); err == nil {
		t.Fatal("NewCertReloader() should reject an expired certificate")
	}
}

func TestServe_TLS(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "localhost", time.Now().Add(24*time.Hour))

	f := newFixture(t, func(cfg *config.Config) {
		cfg.Server.TLS = config.TLSConfig{
			Enabled:        true,
			CertFile:       certFile,
			KeyFile:        keyFile,
			MinVersion:     "1.3",
			ReloadInterval: time.Hour,
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	pool := x509.NewCertPool()
	pool.AddCert(f.server.certs.Certificate().Leaf)
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}

	resp, err := client.Get("https://" + ln.Addr().String() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.TLS == nil || resp.TLS.Version != tls.VersionTLS13 {
		t.Errorf("TLS state = %+v, want TLS 1.3", resp.TLS)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
