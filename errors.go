package main

import "fmt"

// ErrorKind tags the taxonomy of errors the install engine can surface.
// See spec §7 for the propagation rules (surfaced vs. recovered-and-logged).
type ErrorKind int

const (
	ErrInvalidName ErrorKind = iota
	ErrNotFound
	ErrSymlinkLoop
	ErrMasked
	ErrTransientOrGenerated
	ErrNotATemplate
	ErrInvalidTemplateRef
	ErrExists
	ErrDestinationNotPresent
	ErrAuxiliaryFailed
	ErrIO
	ErrParse
	ErrNotUnderRoot
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidName:
		return "InvalidName"
	case ErrNotFound:
		return "NotFound"
	case ErrSymlinkLoop:
		return "SymlinkLoop"
	case ErrMasked:
		return "Masked"
	case ErrTransientOrGenerated:
		return "TransientOrGenerated"
	case ErrNotATemplate:
		return "NotATemplate"
	case ErrInvalidTemplateRef:
		return "InvalidTemplateRef"
	case ErrExists:
		return "Exists"
	case ErrDestinationNotPresent:
		return "DestinationNotPresent"
	case ErrAuxiliaryFailed:
		return "AuxiliaryFailed"
	case ErrIO:
		return "IoError"
	case ErrParse:
		return "ParseError"
	case ErrNotUnderRoot:
		return "NotUnderRoot"
	default:
		return "Unknown"
	}
}

// InstallError is the tagged error type every engine operation returns
// instead of an ad-hoc string, so callers (and the CLI layer) can branch on
// Kind without parsing messages.
type InstallError struct {
	Kind   ErrorKind
	Path   string
	Source string
	Err    error
}

func (e *InstallError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InstallError) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, path string, err error) *InstallError {
	return &InstallError{Kind: kind, Path: path, Err: err}
}

// IsKind reports whether err is an *InstallError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ie, ok := err.(*InstallError)
	return ok && ie.Kind == kind
}
