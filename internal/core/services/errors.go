package services

import "errors"

// ErrIdentityNotFound is reported when the requested certificate is not in
// the directory.
var ErrIdentityNotFound = errors.New("auth: certificate not found")
