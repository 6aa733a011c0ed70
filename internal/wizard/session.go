package wizard

import (
	"sync"
	"time"

	"mat-portal/internal/form"
	"mat-portal/internal/staging"
)

// SubmissionStatus is the lifecycle of a simulated submission.
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSubmitted  SubmissionStatus = "submitted"
	StatusCancelled  SubmissionStatus = "cancelled"
)

// Confirmation is recorded when a submission completes.
type Confirmation struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Preview     string    `json:"preview"`
	TotalFiles  int       `json:"totalFiles"`
}

// Defaults are prefill hints for the personal step.
type Defaults struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// wizardState is everything a reset discards.
type wizardState struct {
	nav    Navigator
	record form.Record
	stager *staging.Stager
	alerts alertList
}

func newWizardState(newStager func() *staging.Stager) wizardState {
	return wizardState{
		nav:    NewNavigator(),
		stager: newStager(),
	}
}

type submission struct {
	status       SubmissionStatus
	token        int
	startedAt    time.Time
	record       form.Record
	files        []staging.File
	done         chan struct{}
	confirmation *Confirmation
}

// finish leaves the submitting state, releasing any waiters.
func (s *submission) finish(status SubmissionStatus) {
	if s.status == StatusSubmitting && s.done != nil {
		close(s.done)
	}
	s.status = status
	s.done = nil
	s.record = form.Record{}
	s.files = nil
}

// Session is one wizard instance. All access goes through Service, which
// holds mu for the duration of each operation.
type Session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	state     wizardState
	sub       submission
}

func newSession(id string, now time.Time, newStager func() *staging.Stager) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		state:     newWizardState(newStager),
		sub:       submission{status: StatusIdle},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SubmissionState is the externally visible submission status.
type SubmissionState struct {
	Status       SubmissionStatus `json:"status"`
	StartedAt    *time.Time       `json:"startedAt,omitempty"`
	Confirmation *Confirmation    `json:"confirmation,omitempty"`
}

// State is a point-in-time copy of a session.
type State struct {
	ID         string
	CreatedAt  time.Time
	Progress   Progress
	Record     form.Record
	Files      []staging.File
	Alerts     []Alert
	Defaults   Defaults
	Submission SubmissionState
}

func (s *Session) submissionState() SubmissionState {
	out := SubmissionState{Status: s.sub.status, Confirmation: s.sub.confirmation}
	if s.sub.status == StatusSubmitting {
		started := s.sub.startedAt
		out.StartedAt = &started
	}
	return out
}

func (s *Session) snapshot(now time.Time, defaults Defaults) State {
	return State{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		Progress:   s.state.nav.Progress(),
		Record:     s.state.record,
		Files:      s.state.stager.Files(),
		Alerts:     s.state.alerts.active(now),
		Defaults:   defaults,
		Submission: s.submissionState(),
	}
}
