package libvirt

import (
	"errors"
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// ErrSessionClosed is returned when a closed Session is used.
var ErrSessionClosed = errors.New("libvirt session is closed")

// ConnectionError reports a session that could not be opened or did not
// close cleanly. Code and Message are the endpoint's error, or zero and the
// local error text when the failure happened before the endpoint answered.
type ConnectionError struct {
	URI     string
	Op      string
	Code    uint32
	Message string
	Err     error
}

func newConnectionError(uri, op string, err error) *ConnectionError {
	code, msg := ErrorDetail(err)
	return &ConnectionError{URI: uri, Op: op, Code: code, Message: msg, Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection to %s failed with code %d, message: %s", e.Op, e.URI, e.Code, e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrorDetail extracts the libvirt error code and message from err.
// Non-libvirt errors yield code 0 and err.Error().
func ErrorDetail(err error) (code uint32, message string) {
	if err == nil {
		return 0, ""
	}
	var lverr libvirt.Error
	if errors.As(err, &lverr) {
		return lverr.Code, lverr.Message
	}
	return 0, err.Error()
}

// HasCode reports whether err is a libvirt error with one of codes.
func HasCode(err error, codes ...libvirt.ErrorNumber) bool {
	var lverr libvirt.Error
	if !errors.As(err, &lverr) {
		return false
	}
	for _, c := range codes {
		if lverr.Code == uint32(c) {
			return true
		}
	}
	return false
}
