package wizard

import "mat-portal/internal/form"

// Step states for the progress indicator.
const (
	StateCompleted = "completed"
	StateActive    = "active"
	StatePending   = "pending"
)

var stepTitles = map[int]string{
	form.StepPersonal:  "Personal Details",
	form.StepTechnical: "Technical Details",
	form.StepFiles:     "File Upload",
}

// Navigator tracks the current step.
type Navigator struct {
	current int
}

// NewNavigator starts at step 1.
func NewNavigator() Navigator {
	return Navigator{current: form.StepPersonal}
}

// Current returns the active step.
func (n *Navigator) Current() int {
	return n.current
}

// Advance validates the required fields of from against values. On success
// the step's values are captured into rec and, below the last step, the
// navigator moves to from+1. On failure nothing changes.
func (n *Navigator) Advance(from int, values map[string]string, rec *form.Record) error {
	if !validStep(from) {
		return ErrInvalidStep
	}
	if errs := form.Validate(from, values); len(errs) > 0 {
		return &StepError{Step: from, Fields: errs}
	}
	rec.Capture(from, values)
	if from < form.TotalSteps {
		n.current = from + 1
	}
	return nil
}

// Retreat moves to toStep-1 without validation.
func (n *Navigator) Retreat(toStep int) error {
	return n.JumpTo(toStep - 1)
}

// JumpTo moves straight to step.
func (n *Navigator) JumpTo(step int) error {
	if !validStep(step) {
		return ErrInvalidStep
	}
	n.current = step
	return nil
}

// StepMark is one entry of the progress indicator.
type StepMark struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

// Progress describes the progress indicator for the current step.
type Progress struct {
	Current  int        `json:"current"`
	Total    int        `json:"total"`
	Fraction float64    `json:"fraction"`
	Percent  float64    `json:"percent"`
	Steps    []StepMark `json:"steps"`
}

// Progress derives the indicator: steps before the current one are
// completed, the current one is active.
func (n *Navigator) Progress() Progress {
	p := Progress{
		Current:  n.current,
		Total:    form.TotalSteps,
		Fraction: float64(n.current-1) / float64(form.TotalSteps-1),
		Steps:    make([]StepMark, 0, form.TotalSteps),
	}
	p.Percent = p.Fraction * 100
	for i := 1; i <= form.TotalSteps; i++ {
		state := StatePending
		switch {
		case i < n.current:
			state = StateCompleted
		case i == n.current:
			state = StateActive
		}
		p.Steps = append(p.Steps, StepMark{Number: i, Title: stepTitles[i], State: state})
	}
	return p
}

func validStep(step int) bool {
	return step >= form.StepPersonal && step <= form.TotalSteps
}
