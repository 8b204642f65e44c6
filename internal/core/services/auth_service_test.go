package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/signing"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

func testIdentity() domain.Identity {
	return domain.Identity{
		SubjectName: "CN=Ivanov Ivan, O=Acme LLC",
		Thumbprint:  "ab:cd:ef:12",
	}
}

func newAuthHarness(t *testing.T, handler http.Handler, signer signing.Signer) (*AuthService, *storage.Store) {
	t.Helper()
	store := newTestStore(t)
	auth := NewAuthService(AuthServiceConfig{
		Client: newTestClient(t, handler),
		Signer: signer,
		Store:  store,
		Logger: logger.Nop(),
	})
	return auth, store
}

func assertArtifactsGone(t *testing.T, store *storage.Store) {
	t.Helper()
	if _, err := os.Stat(store.KeyPath()); !os.IsNotExist(err) {
		t.Error("challenge artifact left behind")
	}
	if _, err := os.Stat(store.SigPath()); !os.IsNotExist(err) {
		t.Error("signature artifact left behind")
	}
}

func TestLoginHappyPath(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/key":
			json.NewEncoder(w).Encode(map[string]string{"uuid": "ch-1", "data": "challenge-payload"})
		case "/auth/simpleSignIn":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["uuid"] != "ch-1" {
				t.Errorf("uuid = %q", body["uuid"])
			}
			if body["data"] != "SIGNATURE" {
				t.Errorf("signature = %q, want cleaned value", body["data"])
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	signer := &fakeSigner{sig: []byte("\r\nSIG\x00NATURE\r\n")}
	auth, store := newAuthHarness(t, handler, signer)

	if err := auth.Login(context.Background(), testIdentity()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	state, lastErr := auth.State()
	if state != StateAuthenticated || lastErr != nil {
		t.Fatalf("state = %s (%v), want Authenticated", state, lastErr)
	}

	token, err := store.LoadToken()
	if err != nil || token != "tok-123" {
		t.Fatalf("token = %q (%v), want tok-123", token, err)
	}

	if string(signer.sawPayload) != "challenge-payload" {
		t.Errorf("signer saw payload %q", signer.sawPayload)
	}
	if signer.sawSelector.Thumbprint != "ABCDEF12" {
		t.Errorf("selector = %+v, want normalized thumbprint", signer.sawSelector)
	}

	assertArtifactsGone(t, store)
}

func TestLoginSigningFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/key":
			json.NewEncoder(w).Encode(map[string]string{"uuid": "ch-1", "data": "x"})
		default:
			t.Errorf("confirmation must not be reached, got %q", r.URL.Path)
		}
	})

	signer := &fakeSigner{err: &signing.InvocationError{ExitCode: 2, Stderr: "key not found"}}
	auth, store := newAuthHarness(t, handler, signer)

	err := auth.Login(context.Background(), testIdentity())
	var invErr *signing.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("err = %v, want InvocationError", err)
	}

	state, lastErr := auth.State()
	if state != StateFailed || lastErr == nil {
		t.Fatalf("state = %s (%v), want Failed", state, lastErr)
	}
	if _, err := store.LoadToken(); !errors.Is(err, storage.ErrNotAuthenticated) {
		t.Fatal("token must not be persisted on a failed login")
	}
	assertArtifactsGone(t, store)
}

func TestLoginConfirmationRejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/key":
			json.NewEncoder(w).Encode(map[string]string{"uuid": "ch-1", "data": "x"})
		case "/auth/simpleSignIn":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"signature mismatch"}`))
		}
	})

	signer := &fakeSigner{sig: []byte("SIGNATURE")}
	auth, store := newAuthHarness(t, handler, signer)

	err := auth.Login(context.Background(), testIdentity())
	if !errors.Is(err, platform.ErrServerRejected) {
		t.Fatalf("err = %v, want ErrServerRejected", err)
	}

	state, _ := auth.State()
	if state != StateFailed {
		t.Fatalf("state = %s, want Failed", state)
	}
	assertArtifactsGone(t, store)
}

func TestLoginEmptySignatureAfterCleaning(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/key":
			json.NewEncoder(w).Encode(map[string]string{"uuid": "ch-1", "data": "x"})
		default:
			t.Errorf("confirmation must not be reached, got %q", r.URL.Path)
		}
	})

	signer := &fakeSigner{sig: []byte("\r\n\t \x01")}
	auth, store := newAuthHarness(t, handler, signer)

	err := auth.Login(context.Background(), testIdentity())
	if !errors.Is(err, signing.ErrEmptyOutput) {
		t.Fatalf("err = %v, want ErrEmptyOutput", err)
	}
	assertArtifactsGone(t, store)
}

func TestSelectorFor(t *testing.T) {
	identity := domain.Identity{SubjectName: "CN=Petrov, O=Org", Thumbprint: "aa bb:cc"}
	selector := selectorFor(identity)
	if selector.Thumbprint != "AABBCC" || selector.CommonName != "" {
		t.Fatalf("selector = %+v", selector)
	}

	identity.Thumbprint = ""
	selector = selectorFor(identity)
	if selector.Thumbprint != "" || selector.CommonName != "Petrov" {
		t.Fatalf("selector = %+v, want common name fallback", selector)
	}
}

func TestCleanSignature(t *testing.T) {
	got := cleanSignature([]byte("  \r\nMIIB\x00abc\r\n  "))
	if got != "MIIBabc" {
		t.Fatalf("cleaned = %q", got)
	}
}
