package platform

import "errors"

var (
	ErrNetwork        = errors.New("platform: request failed")
	ErrServerRejected = errors.New("platform: server rejected request")
	ErrParse          = errors.New("platform: malformed response")
)
