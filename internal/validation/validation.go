package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind identifies how a field value is shaped.
type Kind string

const (
	KindText  Kind = "text"
	KindEmail Kind = "email"
	KindTel   Kind = "tel"
)

// Error codes surfaced to clients.
const (
	CodeRequiredFieldMissing = "RequiredFieldMissing"
	CodeInvalidEmailShape    = "InvalidEmailShape"
	CodeInvalidPhoneShape    = "InvalidPhoneShape"
)

const (
	msgRequired     = "This field is required"
	msgInvalidEmail = "Please enter a valid email address"
	msgInvalidPhone = "Please enter a valid phone number"
)

// space is the whitespace set browsers match for \s: RE2's \s lacks \v and
// the Unicode spaces.
const space = `\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d` + space + `\-()]{10,}$`)
)

// Field is a single field-change event.
type Field struct {
	Name     string `json:"field"`
	Value    string `json:"value"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
}

// FieldError describes why a field failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Required reports whether the trimmed value is non-empty.
func Required(value string) bool {
	return trim(value) != ""
}

// trim strips the same whitespace set the patterns use.
func trim(value string) string {
	return strings.TrimFunc(value, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Email reports whether value has the shape local@domain.tld without whitespace.
func Email(value string) bool {
	return emailPattern.MatchString(value)
}

// Phone reports whether value is an optional "+" followed by at least ten
// digits, spaces, dashes or parentheses.
func Phone(value string) bool {
	return phonePattern.MatchString(value)
}

// Check validates one field. A required failure wins; shape checks only run
// on non-empty values. The returned bool is true when the field is valid.
func Check(f Field) (FieldError, bool) {
	value := trim(f.Value)

	var fe FieldError
	ok := true
	if f.Required && value == "" {
		fe = FieldError{Field: f.Name, Code: CodeRequiredFieldMissing, Message: msgRequired}
		ok = false
	}
	if value != "" {
		switch f.Kind {
		case KindEmail:
			if !Email(value) {
				fe = FieldError{Field: f.Name, Code: CodeInvalidEmailShape, Message: msgInvalidEmail}
				ok = false
			}
		case KindTel:
			if !Phone(value) {
				fe = FieldError{Field: f.Name, Code: CodeInvalidPhoneShape, Message: msgInvalidPhone}
				ok = false
			}
		}
	}
	return fe, ok
}

// CheckAll validates every field and returns the failures in input order.
func CheckAll(fields []Field) []FieldError {
	var out []FieldError
	for _, f := range fields {
		if fe, ok := Check(f); !ok {
			out = append(out, fe)
		}
	}
	return out
}
