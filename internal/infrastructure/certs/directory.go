package certs

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/logger"
)

// Directory supplies the identities the operator can sign with, already
// filtered to non-expired entries.
type Directory interface {
	ListIdentities() ([]domain.Identity, error)
}

var certExtensions = map[string]bool{
	".cer": true,
	".crt": true,
	".pem": true,
	".der": true,
}

// FileDirectory enumerates certificates from a folder of PEM or DER files.
type FileDirectory struct {
	dir    string
	logger *logger.Logger
	now    func() time.Time
}

func NewFileDirectory(dir string, log *logger.Logger) *FileDirectory {
	return &FileDirectory{dir: dir, logger: log, now: time.Now}
}

func (d *FileDirectory) ListIdentities() ([]domain.Identity, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("certs: failed to read %s: %w", d.dir, err)
	}

	now := d.now()
	var identities []domain.Identity
	for _, entry := range entries {
		if entry.IsDir() || !certExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(d.dir, entry.Name())
		cert, err := loadCertificate(path)
		if err != nil {
			d.logger.Warnw("certificate_skipped", "file", entry.Name(), "error", err)
			continue
		}
		if cert.NotAfter.Before(now) {
			continue
		}

		identities = append(identities, domain.Identity{
			SubjectName:  cert.Subject.String(),
			IssuerName:   cert.Issuer.String(),
			SerialNumber: formatColonHex(cert.SerialNumber.Bytes()),
			Thumbprint:   formatColonHex(thumbprint(cert.Raw)),
			NotBefore:    cert.NotBefore,
			NotAfter:     cert.NotAfter,
		})
	}

	sort.Slice(identities, func(i, j int) bool {
		return identities[i].SubjectName < identities[j].SubjectName
	})
	return identities, nil
}

func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	return x509.ParseCertificate(data)
}

func thumbprint(raw []byte) []byte {
	sum := sha1.Sum(raw)
	return sum[:]
}

func formatColonHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}
