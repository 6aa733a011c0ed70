package staging

import "github.com/google/uuid"

// Stager holds the ordered list of staged files for one wizard session.
// It is not safe for concurrent use; callers serialize access.
type Stager struct {
	files []File
	newID func() string
}

// Option configures a Stager.
type Option func(*Stager)

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Stager) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStager constructs an empty Stager.
func NewStager(opts ...Option) *Stager {
	s := &Stager{newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage validates c against type, size and duplicate policy, in that order,
// and appends it on success. On rejection the list is left untouched and the
// error is a *Rejection.
func (s *Stager) Stage(c Candidate) (File, error) {
	ext := Extension(c.Name)
	reject := func(reason error) (File, error) {
		return File{}, &Rejection{Name: c.Name, Size: c.Size, Extension: ext, Reason: reason}
	}

	if !IsSupported(ext) {
		return reject(ErrUnsupportedType)
	}
	if c.Size > MaxFileSize {
		return reject(ErrTooLarge)
	}
	for _, f := range s.files {
		if f.Name == c.Name && f.Size == c.Size {
			return reject(ErrDuplicate)
		}
	}

	f := File{
		ID:        s.newID(),
		Name:      c.Name,
		Size:      c.Size,
		Extension: ext,
		Handle:    c.Handle,
	}
	s.files = append(s.files, f)
	return f, nil
}

// BatchResult is the outcome of staging one candidate in a batch.
type BatchResult struct {
	Candidate Candidate
	File      File
	Err       error
}

// StageBatch stages each candidate independently; a rejection does not stop
// the remaining candidates.
func (s *Stager) StageBatch(cs []Candidate) []BatchResult {
	out := make([]BatchResult, 0, len(cs))
	for _, c := range cs {
		f, err := s.Stage(c)
		out = append(out, BatchResult{Candidate: c, File: f, Err: err})
	}
	return out
}

// Unstage removes the file with the given id. It reports whether a file was
// removed; removing an unknown id is a no-op.
func (s *Stager) Unstage(id string) bool {
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i:i], s.files[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns a copy of the staged list in insertion order.
func (s *Stager) Files() []File {
	return append([]File(nil), s.files...)
}

// Len returns the number of staged files.
func (s *Stager) Len() int {
	return len(s.files)
}
