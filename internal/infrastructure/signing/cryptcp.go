package signing

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/infrastructure/logger"
)

var wellKnownToolPaths = []string{
	`C:\Program Files\Crypto Pro\CSP\cryptcp.exe`,
	`C:\Program Files (x86)\Crypto Pro\CSP\cryptcp.exe`,
	"/opt/cprocsp/bin/amd64/cryptcp",
}

// CryptcpSigner invokes the CryptoPro cryptcp command-line tool. The tool
// reads the challenge file and writes a detached signature next to it.
type CryptcpSigner struct {
	toolPath string
	timeout  time.Duration
	logger   *logger.Logger
}

func NewCryptcp(cfg config.SigningConfig, log *logger.Logger) *CryptcpSigner {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &CryptcpSigner{
		toolPath: cfg.ToolPath,
		timeout:  timeout,
		logger:   log,
	}
}

func (s *CryptcpSigner) Sign(ctx context.Context, challengePath string, selector Selector) ([]byte, error) {
	toolPath, err := s.resolveToolPath()
	if err != nil {
		return nil, err
	}

	sigPath := challengePath + ".sig"

	args := []string{"-sign", "-uMy", "-yes"}
	if selector.Thumbprint != "" {
		args = append(args, "-thumb", selector.Thumbprint)
	} else {
		args = append(args, "-dn", selector.CommonName)
	}
	args = append(args, challengePath, sigPath)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, toolPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	s.logger.Infow("signing_tool_run",
		"tool", toolPath,
		"thumbprint", selector.Thumbprint,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", runErr,
	)

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			diag := stderr.String()
			if strings.TrimSpace(diag) == "" {
				diag = stdout.String()
			}
			return nil, &InvocationError{ExitCode: exitErr.ExitCode(), Stderr: diag}
		}
		return nil, ErrToolNotFound
	}

	signature, err := os.ReadFile(sigPath)
	if err != nil {
		return nil, ErrEmptyOutput
	}
	if len(bytes.TrimSpace(signature)) == 0 {
		return nil, ErrEmptyOutput
	}
	return signature, nil
}

func (s *CryptcpSigner) resolveToolPath() (string, error) {
	candidates := make([]string, 0, len(wellKnownToolPaths)+2)
	if s.toolPath != "" {
		candidates = append(candidates, s.toolPath)
	}
	if env := os.Getenv("CRYPTCP_PATH"); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, wellKnownToolPaths...)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrToolNotFound
}
