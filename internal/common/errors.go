package common

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error classes every layer converts foreign
// errors into at the boundary where they are first observed (HTTP status,
// JSON payload, OS error, cipher failure). Callers match with errors.Is
// against the sentinel Err* values below, or with errors.As against *Error
// to inspect Kind directly.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindNotFound      Kind = "not_found"
	KindAmbiguous     Kind = "ambiguous"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindTransient     Kind = "transient"
	KindFatal         Kind = "fatal"
	KindCryptoVersion Kind = "crypto_version"
	KindCryptoAuth    Kind = "crypto_auth"
	KindCorruptChunk  Kind = "corrupt_chunk"
	KindHashMismatch  Kind = "hash_mismatch"
	KindInvalidPath   Kind = "invalid_path"
	KindIO            Kind = "io"
	KindCanceled      Kind = "canceled"
)

// Error wraps an underlying cause with a closed-set Kind. A nil Cause is
// allowed when the kind itself is self-explanatory.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, common.New(KindAuth, nil)) match any *Error of the
// same Kind regardless of Cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// As reports whether err is, or wraps, an *Error and if so returns its Kind.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether the first *Error in err's chain (as found by As)
// carries the given Kind; Kinds of any deeper *Error are not consulted.
func IsKind(err error, kind Kind) bool {
	k, ok := As(err)
	return ok && k == kind
}

// Sentinel values for errors.Is checks against a specific class without
// caring about the cause.
var (
	ErrAuth          = &Error{Kind: KindAuth}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAmbiguous     = &Error{Kind: KindAmbiguous}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrTransient     = &Error{Kind: KindTransient}
	ErrFatal         = &Error{Kind: KindFatal}
	ErrCryptoVersion = &Error{Kind: KindCryptoVersion}
	ErrCryptoAuth    = &Error{Kind: KindCryptoAuth}
	ErrCorruptChunk  = &Error{Kind: KindCorruptChunk}
	ErrHashMismatch  = &Error{Kind: KindHashMismatch}
	ErrInvalidPath   = &Error{Kind: KindInvalidPath}
	ErrIO            = &Error{Kind: KindIO}
	ErrCanceled      = &Error{Kind: KindCanceled}
)

// Retryable reports whether a Kind is one the backend client's retry
// wrapper should act on automatically (§4.2, §7).
func Retryable(kind Kind) bool {
	return kind == KindTransient || kind == KindRateLimited
}
