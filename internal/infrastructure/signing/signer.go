package signing

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selector identifies the signing key inside the operator's personal store.
// Thumbprint is preferred; CommonName is the fallback when the certificate
// carries no thumbprint.
type Selector struct {
	Thumbprint string
	CommonName string
}

// Signer produces a detached signature over the challenge file using the
// selected identity.
type Signer interface {
	Sign(ctx context.Context, challengePath string, selector Selector) ([]byte, error)
}

var (
	ErrToolNotFound = errors.New("signing: signing tool not found")
	ErrEmptyOutput  = errors.New("signing: signature output is empty")
)

// InvocationError reports a signing tool run that started but exited
// unsuccessfully.
type InvocationError struct {
	ExitCode int
	Stderr   string
}

func (e *InvocationError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no diagnostic output"
	}
	return fmt.Sprintf("signing: tool exited with code %d: %s", e.ExitCode, msg)
}
