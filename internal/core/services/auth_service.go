package services

import (
	"context"
	"strings"
	"sync"

	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/platform"
	"github.com/znakly/agent/internal/infrastructure/signing"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

// AuthState tracks the login protocol. Failed is reachable from every
// non-terminal state.
type AuthState string

const (
	StateIdle               AuthState = "IDLE"
	StateChallengeRequested AuthState = "CHALLENGE_REQUESTED"
	StateSigning            AuthState = "SIGNING"
	StateConfirmPending     AuthState = "CONFIRM_PENDING"
	StateAuthenticated      AuthState = "AUTHENTICATED"
	StateFailed             AuthState = "FAILED"
)

// AuthService runs the challenge/response login: request challenge, sign it
// with the selected identity, confirm the signature, persist the token.
type AuthService struct {
	client     *platform.Client
	signer     signing.Signer
	store      *storage.Store
	dispatcher *DispatchService
	poller     *PollerService
	logger     *logger.Logger

	mu      sync.Mutex
	state   AuthState
	lastErr error

	pollerOnce sync.Once
}

type AuthServiceConfig struct {
	Client     *platform.Client
	Signer     signing.Signer
	Store      *storage.Store
	Dispatcher *DispatchService
	Poller     *PollerService
	Logger     *logger.Logger
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		client:     cfg.Client,
		signer:     cfg.Signer,
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		poller:     cfg.Poller,
		logger:     cfg.Logger,
		state:      StateIdle,
	}
}

// State reports the current protocol state and, when failed, the reason.
func (s *AuthService) State() (AuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Login runs the full protocol for the selected identity. A challenge is
// single-use, so every call restarts from Idle with a fresh one. The
// transient challenge and signature artifacts are removed on every exit
// path. On success the token is persisted, a submission round is kicked off
// in the background and the poller is started (once); the submission round's
// outcome does not affect the login result.
func (s *AuthService) Login(ctx context.Context, identity domain.Identity) error {
	s.setState(StateIdle, nil)

	s.setState(StateChallengeRequested, nil)
	challenge, err := s.client.GetChallenge(ctx)
	if err != nil {
		return s.fail(err)
	}

	if err := s.store.WriteChallenge(challenge.Payload); err != nil {
		return s.fail(err)
	}
	defer s.store.CleanupChallenge()

	s.setState(StateSigning, nil)
	signature, err := s.signer.Sign(ctx, s.store.KeyPath(), selectorFor(identity))
	if err != nil {
		return s.fail(err)
	}

	cleaned := cleanSignature(signature)
	if cleaned == "" {
		return s.fail(signing.ErrEmptyOutput)
	}

	s.setState(StateConfirmPending, nil)
	token, err := s.client.SignIn(ctx, challenge.UUID, cleaned)
	if err != nil {
		return s.fail(err)
	}

	if err := s.store.SaveToken(token); err != nil {
		return s.fail(err)
	}
	s.setState(StateAuthenticated, nil)
	s.logger.Infow("login_succeeded", "subject", identity.SubjectName)

	if s.dispatcher != nil {
		go func() {
			outcomes, err := s.dispatcher.SubmitAll(context.Background())
			if err != nil {
				s.logger.Warnw("submission_round_failed", "error", err)
				return
			}
			s.logger.Infow("submission_round_done", "outcomes", outcomes)
		}()
	}
	if s.poller != nil {
		s.pollerOnce.Do(s.poller.Start)
	}
	return nil
}

func (s *AuthService) setState(state AuthState, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}

func (s *AuthService) fail(err error) error {
	s.setState(StateFailed, err)
	s.logger.Warnw("login_failed", "error", err)
	return err
}

// selectorFor prefers the normalized thumbprint; certificates without one
// fall back to the subject common name.
func selectorFor(identity domain.Identity) signing.Selector {
	thumb := strings.NewReplacer(":", "", " ", "").Replace(identity.Thumbprint)
	thumb = strings.ToUpper(thumb)
	if thumb != "" {
		return signing.Selector{Thumbprint: thumb}
	}
	return signing.Selector{CommonName: commonName(identity.SubjectName)}
}

func commonName(subject string) string {
	for _, part := range strings.Split(subject, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "CN=") {
			return strings.TrimPrefix(part, "CN=")
		}
	}
	return subject
}

// cleanSignature strips control characters and surrounding whitespace from
// the raw tool output.
func cleanSignature(raw []byte) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, string(raw))
	return strings.TrimSpace(cleaned)
}
