// Package core defines the error taxonomy shared by the publisher, the
// manifest builder and the CLI.
package core

// ErrorCategory classifies a terminal failure so the operator can tell a
// misconfigured job from a corrupt page root.
type ErrorCategory int

const (
	ErrCategoryNone     ErrorCategory = iota // No error
	ErrCategoryConfig                        // Missing/invalid input, template absent, page root not a directory
	ErrCategoryConflict                      // Bundle name already taken
	ErrCategoryIO                            // Unreadable source, copy or write failure
	ErrCategoryCorrupt                       // Bundle metadata present but unparseable
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryConflict:
		return "conflict"
	case ErrCategoryIO:
		return "io"
	case ErrCategoryCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}
