package domain

import "time"

// DateLayout is the wire format for all platform dates.
const DateLayout = "2006-01-02"

// Identity is a certificate-derived signing key reference selectable by the
// operator. Immutable once listed by the certificate directory.
type Identity struct {
	SubjectName  string    `json:"subject_name"`
	IssuerName   string    `json:"issuer_name"`
	SerialNumber string    `json:"serial_number"`
	Thumbprint   string    `json:"thumbprint"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
}

// Challenge is the server-issued nonce that must be signed to prove
// possession of an identity. Consumed exactly once per login attempt.
type Challenge struct {
	UUID    string
	Payload []byte
}

// TaskRecord is one submitted report-generation job. Created by the
// dispatcher on a successful submission; only Status is mutated afterwards,
// by the poller.
type TaskRecord struct {
	ID               string    `json:"id"`
	ProductGroupCode int       `json:"product_group_code"`
	PeriodStart      string    `json:"period_start"`
	PeriodEnd        string    `json:"period_end"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// TaskStatusView is the read-only projection of a task plus the latest poll
// outcome, rebuilt as a whole on every poll cycle.
type TaskStatusView struct {
	ID               string `json:"id"`
	ProductGroupCode int    `json:"product_group_code"`
	ProductGroup     string `json:"product_group"`
	Status           string `json:"status"`
	CreateDate       string `json:"create_date"`
	IsCompleted      bool   `json:"is_completed"`
	Error            string `json:"error,omitempty"`
	DownloadURL      string `json:"download_url,omitempty"`
}

// StatusError marks a task whose last poll failed.
const StatusError = "ERROR"

// StatusCompleted is the terminal server-side status of a finished report job.
const StatusCompleted = "COMPLETED"
