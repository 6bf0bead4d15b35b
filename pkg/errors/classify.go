package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// statusCoder is satisfied by the Nomad client's unexpected-response error.
type statusCoder interface {
	StatusCode() int
}

var unexpectedCodeRe = regexp.MustCompile(`[Uu]nexpected response code:? (\d{3})`)

var certificateHints = []string{
	"x509:",
	"tls:",
	"certificate",
	"pem",
}

var connectionHints = []string{
	"connection refused",
	"no such host",
	"dial tcp",
	"i/o timeout",
	"connection reset",
	"network is unreachable",
	"no route to host",
	"client.timeout exceeded",
}

// Op describes the API call an error came from.
type Op struct {
	Name     string // e.g. "list jobs"
	Address  string
	Resource string // what a 404 means was missing, e.g. "job"
	ID       string
}

// Classify maps a raw error from the Nomad client or the TLS stack onto the
// closed taxonomy. Errors that are already typed pass through.
func Classify(err error, op Op) error {
	if err == nil {
		return nil
	}

	var typed Error
	if errors.As(err, &typed) {
		return err
	}

	if errors.Is(err, context.Canceled) || strings.Contains(err.Error(), context.Canceled.Error()) {
		return &BaseError{
			code:    CodeCancelled,
			message: op.Name + " cancelled",
			cause:   err,
			stack:   captureStack(1),
		}
	}

	if status, ok := statusOf(err); ok {
		if status == http.StatusNotFound {
			resource := op.Resource
			if resource == "" {
				resource = "resource"
			}
			return NewNotFoundError(resource, op.ID).WithCause(err)
		}
		return NewTransportError(op.Name, status, err)
	}

	// Typed errors first. Message hints are a fallback only: host names
	// may contain "pem" or "certificate".
	switch {
	case isCertificateFailure(err):
		return newHandshakeError(op, err)
	case isConnectionFailure(err):
		return NewConnectionError(op.Address, err)
	case containsAny(strings.ToLower(err.Error()), certificateHints):
		return newHandshakeError(op, err)
	case containsAny(strings.ToLower(err.Error()), connectionHints):
		return NewConnectionError(op.Address, err)
	}

	return NewTransportError(op.Name, 0, err)
}

func statusOf(err error) (int, bool) {
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return sc.StatusCode(), true
	}
	if m := unexpectedCodeRe.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code, true
		}
	}
	return 0, false
}

func newHandshakeError(op Op, err error) error {
	return NewCertificateError("", "TLS handshake with "+op.Address+" failed", err)
}

func isCertificateFailure(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalidCert      x509.CertificateInvalidError
		hostnameErr      x509.HostnameError
		verifyErr        *tls.CertificateVerificationError
		recordErr        tls.RecordHeaderError
		opErr            *net.OpError
	)
	switch {
	case errors.As(err, &unknownAuthority),
		errors.As(err, &invalidCert),
		errors.As(err, &hostnameErr),
		errors.As(err, &verifyErr),
		errors.As(err, &recordErr):
		return true
	case errors.As(err, &opErr) && opErr.Op == "remote error":
		// TLS alert sent by the peer, e.g. it rejected our client certificate.
		return true
	}
	return false
}

func isConnectionFailure(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
		netErr net.Error
	)
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
