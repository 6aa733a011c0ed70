package staging

import "strings"

// MaxFileSize is the largest accepted file, in bytes.
const MaxFileSize int64 = 10 << 20

var supportedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".jpg", ".png", ".zip"}

// SupportedExtensions returns the accepted extensions in display order.
func SupportedExtensions() []string {
	return append([]string(nil), supportedExtensions...)
}

// IsSupported reports whether ext (lowercased, dot-prefixed) is accepted.
func IsSupported(ext string) bool {
	for _, s := range supportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// Candidate is a file offered for staging. Handle is whatever the transport
// layer uses to refer to the file; it is carried along and never read.
type Candidate struct {
	Name   string
	Size   int64
	Handle any
}

// File is a staged file descriptor.
type File struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	Handle    any    `json:"-"`
}

// Extension returns "." plus the lowercased text after the last dot in name.
// A name without a dot yields "." plus the whole lowercased name.
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return "." + strings.ToLower(name)
}
