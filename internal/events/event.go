// Package events fans wizard session events out to live subscribers and
// streams them over websockets.
package events

import "time"

// Event types.
const (
	TypeSessionSnapshot     = "session.snapshot"
	TypeSessionCreated      = "session.created"
	TypeSessionReset        = "session.reset"
	TypeStepChanged         = "step.changed"
	TypeFileStaged          = "file.staged"
	TypeFileRejected        = "file.rejected"
	TypeFileRemoved         = "file.removed"
	TypeAlertDismissed      = "alert.dismissed"
	TypeSubmissionStarted   = "submission.started"
	TypeSubmissionCompleted = "submission.completed"
)

// Event is one notification about a session.
type Event struct {
	Type      string    `json:"type" msgpack:"type"`
	SessionID string    `json:"sessionId" msgpack:"sessionId"`
	At        time.Time `json:"at" msgpack:"at"`
	Data      any       `json:"data,omitempty" msgpack:"data,omitempty"`
}
