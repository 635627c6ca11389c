// Package rtmerrors wraps the error kinds spec §7 classifies as
// externally visible: allocator failures surfaced at commit time and
// configuration errors from rtmconfig. conflict/seal/timeout/swap never
// reach this package -- they are resolved internally by the
// abort/rollback/retry path in checkpoint.go and never become Go errors.
//
// Wrapping goes through github.com/pkg/errors instead of bare fmt.Errorf,
// matching the wrapping idiom used elsewhere in the pack.
package rtmerrors

import "github.com/pkg/errors"

// Kind classifies an externally-surfaced error.
type Kind int

const (
	KindAllocator Kind = iota
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindAllocator:
		return "allocator"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the wrapped cause, so callers can switch on Kind
// without parsing a message string.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.cause.Error() }
func (e *Error) Unwrap() error { return e.cause }

// Allocator wraps an out-of-memory or allocation failure detected during
// commit (spec §7: "allocator: out-of-memory inside a transaction ->
// surfaced to caller at commit time").
func Allocator(cause error, msg string) error {
	return &Error{Kind: KindAllocator, cause: errors.Wrap(cause, msg)}
}

// Config wraps a configuration parsing failure from rtmconfig.
func Config(cause error, msg string) error {
	return &Error{Kind: KindConfig, cause: errors.Wrap(cause, msg)}
}

// New constructs a plain stack-annotated error, for call sites with no
// existing cause to wrap.
func New(msg string) error { return errors.New(msg) }
