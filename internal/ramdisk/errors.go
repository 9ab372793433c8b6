package ramdisk

import "fmt"

// ErrorKind identifies which external step failed
type ErrorKind int

const (
	KindAllocation ErrorKind = iota + 1
	KindFormatting
	KindEjecting
)

func (k ErrorKind) String() string {
	switch k {
	case KindAllocation:
		return "allocation"
	case KindFormatting:
		return "formatting"
	case KindEjecting:
		return "ejecting"
	default:
		return "unknown"
	}
}

// Error is returned by create and eject operations. Detail carries the
// failed tool's error stream, if it wrote one.
type Error struct {
	Kind   ErrorKind
	Detail string
}

// Sentinels for errors.Is
var (
	ErrAllocation = &Error{Kind: KindAllocation}
	ErrFormatting = &Error{Kind: KindFormatting}
	ErrEjecting   = &Error{Kind: KindEjecting}
)

func AllocationError(detail string) *Error { return &Error{Kind: KindAllocation, Detail: detail} }
func FormattingError(detail string) *Error { return &Error{Kind: KindFormatting, Detail: detail} }
func EjectingError(detail string) *Error   { return &Error{Kind: KindEjecting, Detail: detail} }

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ram disk %s failed", e.Kind)
	}
	return fmt.Sprintf("ram disk %s failed: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
