package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/signing"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

func newTestClient(t *testing.T, handler http.Handler) *platform.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	retryer := platform.NewRetryer(config.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
	}, logger.Nop())

	return platform.NewClient(platform.ClientConfig{
		Platform: config.PlatformConfig{
			BaseURL:        srv.URL,
			RequestTimeout: 5 * time.Second,
			UserAgent:      "znakly-test",
		},
		Retry:  retryer,
		Logger: logger.Nop(),
	})
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return store
}

func newAuthenticatedStore(t *testing.T) *storage.Store {
	t.Helper()
	store := newTestStore(t)
	if err := store.SaveToken("test-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	return store
}

func testDispenserConfig() config.DispenserConfig {
	return config.DispenserConfig{
		ProductGroups:       []int{12, 16, 20},
		ViolationCategories: []int{1, 2, 4},
		ViolationKinds:      []int{1, 2, 5},
		ReportName:          "VIOLATIONS",
		Format:              "CSV",
		Periodicity:         "SINGLE",
		PollInterval:        time.Minute,
		PollInitialDelay:    time.Millisecond,
		RetentionDays:       7,
	}
}

// fakeSigner substitutes the external signing tool in auth tests.
type fakeSigner struct {
	sig []byte
	err error

	sawSelector signing.Selector
	sawPayload  []byte
}

func (f *fakeSigner) Sign(ctx context.Context, challengePath string, selector signing.Selector) ([]byte, error) {
	f.sawSelector = selector
	f.sawPayload, _ = os.ReadFile(challengePath)
	if f.err != nil {
		return nil, f.err
	}
	return f.sig, nil
}
