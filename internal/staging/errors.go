package staging

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedType indicates the file extension is not accepted.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge indicates the file exceeds MaxFileSize.
	ErrTooLarge = errors.New("file too large")

	// ErrDuplicate indicates a file with the same name and size is already staged.
	ErrDuplicate = errors.New("duplicate file")
)

// Rejection codes, stable for clients.
const (
	CodeUnsupportedType = "UnsupportedType"
	CodeTooLarge        = "TooLarge"
	CodeDuplicate       = "Duplicate"
)

// Rejection explains why a candidate was not staged.
type Rejection struct {
	Name      string
	Size      int64
	Extension string
	Reason    error
}

func (r *Rejection) Error() string {
	return r.Message()
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Code maps the reason onto its client code.
func (r *Rejection) Code() string {
	switch {
	case errors.Is(r.Reason, ErrUnsupportedType):
		return CodeUnsupportedType
	case errors.Is(r.Reason, ErrTooLarge):
		return CodeTooLarge
	case errors.Is(r.Reason, ErrDuplicate):
		return CodeDuplicate
	default:
		return "Rejected"
	}
}

// Message is the notice shown to the user.
func (r *Rejection) Message() string {
	switch {
	case errors.Is(r.Reason, ErrUnsupportedType):
		return fmt.Sprintf("File type %s is not supported. Supported types: %s", r.Extension, strings.Join(SupportedExtensions(), ", "))
	case errors.Is(r.Reason, ErrTooLarge):
		return fmt.Sprintf("File %s is too large. Maximum size is 10MB.", r.Name)
	case errors.Is(r.Reason, ErrDuplicate):
		return fmt.Sprintf("File %s has already been uploaded.", r.Name)
	default:
		return fmt.Sprintf("File %s was rejected.", r.Name)
	}
}
