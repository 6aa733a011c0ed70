package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mat-portal/internal/events"
	"mat-portal/internal/shared/metrics"
	"mat-portal/internal/shared/telemetry"
	"mat-portal/internal/staging"
	"mat-portal/internal/summary"
	"mat-portal/internal/validation"
)

const (
	defaultSubmitDelay = 2 * time.Second
	defaultAlertTTL    = 5 * time.Second
)

// Options configures a Service.
type Options struct {
	Repo        Repo
	Hub         *events.Hub
	Portal      summary.Portal
	Defaults    Defaults
	SubmitDelay time.Duration
	AlertTTL    time.Duration
	Now         func() time.Time
	NewStager   func() *staging.Stager
}

// Service runs wizard operations against stored sessions.
type Service struct {
	repo        Repo
	hub         *events.Hub
	portal      summary.Portal
	defaults    Defaults
	submitDelay time.Duration
	alertTTL    time.Duration
	now         func() time.Time
	newStager   func() *staging.Stager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewService constructs a Service. Zero durations fall back to the portal
// defaults; use a negative SubmitDelay for an immediate submission.
func NewService(opts Options) *Service {
	if opts.Repo == nil {
		opts.Repo = NewMemoryRepo(0, opts.Now)
	}
	if opts.Hub == nil {
		opts.Hub = events.NewHub(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewStager == nil {
		opts.NewStager = func() *staging.Stager { return staging.NewStager() }
	}
	if opts.SubmitDelay == 0 {
		opts.SubmitDelay = defaultSubmitDelay
	}
	if opts.SubmitDelay < 0 {
		opts.SubmitDelay = 0
	}
	if opts.AlertTTL <= 0 {
		opts.AlertTTL = defaultAlertTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:        opts.Repo,
		hub:         opts.Hub,
		portal:      opts.Portal,
		defaults:    opts.Defaults,
		submitDelay: opts.SubmitDelay,
		alertTTL:    opts.AlertTTL,
		now:         opts.Now,
		newStager:   opts.NewStager,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Hub exposes the event hub sessions publish to.
func (s *Service) Hub() *events.Hub {
	return s.hub
}

// Close cancels pending submissions and background work, then waits for them.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// track registers a background goroutine unless the service is closed.
func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// Exists reports whether id names a live session.
func (s *Service) Exists(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	_, err := s.repo.Get(ctx, id)
	return err == nil
}

// StartJanitor sweeps expired sessions every interval until Close.
func (s *Service) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	if !s.track() {
		return
	}
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Service) sweep() {
	ids, err := s.repo.Sweep(s.ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			telemetry.Error("wizard.sweep.failed", map[string]any{"err": err.Error()})
		}
		return
	}
	for _, id := range ids {
		s.hub.CloseTopic(id)
	}
	if len(ids) > 0 {
		telemetry.Info("wizard.sessions.expired", map[string]any{"count": len(ids)})
	}
}

// Create starts a new session.
func (s *Service) Create(ctx context.Context) (State, error) {
	sess := newSession(uuid.NewString(), s.now(), s.newStager)
	if err := s.repo.Create(ctx, sess); err != nil {
		return State{}, err
	}
	metrics.IncSessionsCreated()
	telemetry.Info("wizard.session.created", map[string]any{"session_id": sess.id})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	st := sess.snapshot(s.now(), s.defaults)
	s.publish(sess.id, events.TypeSessionCreated, nil)
	return st, nil
}

// Get returns the current state of a session.
func (s *Service) Get(ctx context.Context, id string) (State, error) {
	var st State
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		st = sess.snapshot(s.now(), s.defaults)
		return nil
	})
	return st, err
}

// Delete discards a session, cancelling any pending submission.
func (s *Service) Delete(ctx context.Context, id string) error {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.sub.status == StatusSubmitting {
		sess.sub.token++
		sess.sub.finish(StatusCancelled)
		metrics.IncSubmissionsCancelled()
	}
	sess.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.CloseTopic(id)
	telemetry.Info("wizard.session.deleted", map[string]any{"session_id": id})
	return nil
}

// Reset discards all captured data, staged files and alerts.
func (s *Service) Reset(ctx context.Context, id string) (State, error) {
	var st State
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		sess.state = newWizardState(s.newStager)
		sess.sub = submission{status: StatusIdle, token: sess.sub.token}
		st = sess.snapshot(s.now(), s.defaults)
		s.publish(id, events.TypeSessionReset, nil)
		telemetry.Info("wizard.session.reset", map[string]any{"session_id": id})
		return nil
	})
	return st, err
}

// ValidateField checks one field-change event.
func (s *Service) ValidateField(ctx context.Context, id string, f validation.Field) (validation.FieldError, bool, error) {
	var (
		fe validation.FieldError
		ok bool
	)
	err := s.withSession(ctx, id, false, func(*Session) error {
		fe, ok = validation.Check(f)
		return nil
	})
	return fe, ok, err
}

// Advance validates and captures step, moving forward on success. A
// *StepError reports field failures.
func (s *Service) Advance(ctx context.Context, id string, step int, values map[string]string) (State, error) {
	var st State
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		from := sess.state.nav.Current()
		if err := sess.state.nav.Advance(step, values, &sess.state.record); err != nil {
			var stepErr *StepError
			if errors.As(err, &stepErr) {
				metrics.IncStepRejections()
				telemetry.Info("wizard.step.rejected", map[string]any{
					"session_id":     id,
					"step":           step,
					"invalid_fields": len(stepErr.Fields),
				})
			}
			return err
		}
		metrics.IncStepsAdvanced()
		s.stepChanged(sess, from, "advance")
		st = sess.snapshot(s.now(), s.defaults)
		return nil
	})
	return st, err
}

// Retreat moves back from toStep to the previous step.
func (s *Service) Retreat(ctx context.Context, id string, toStep int) (State, error) {
	return s.move(ctx, id, "retreat", func(nav *Navigator) error { return nav.Retreat(toStep) })
}

// JumpTo moves directly to step, e.g. when editing from the summary.
func (s *Service) JumpTo(ctx context.Context, id string, step int) (State, error) {
	return s.move(ctx, id, "jump", func(nav *Navigator) error { return nav.JumpTo(step) })
}

func (s *Service) move(ctx context.Context, id, reason string, fn func(*Navigator) error) (State, error) {
	var st State
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		from := sess.state.nav.Current()
		if err := fn(&sess.state.nav); err != nil {
			return err
		}
		s.stepChanged(sess, from, reason)
		st = sess.snapshot(s.now(), s.defaults)
		return nil
	})
	return st, err
}

func (s *Service) stepChanged(sess *Session, from int, reason string) {
	to := sess.state.nav.Current()
	s.publish(sess.id, events.TypeStepChanged, map[string]any{"from": from, "step": to, "reason": reason})
	telemetry.Info("wizard.step.changed", map[string]any{
		"session_id": sess.id,
		"from":       from,
		"step":       to,
		"reason":     reason,
	})
}

// StageOutcome is the result for one candidate of a staging batch.
type StageOutcome struct {
	Name  string
	Size  int64
	File  *staging.File
	Alert *Alert
	Code  string
}

// StageFiles stages each candidate independently. Rejections are reported
// per candidate and raised as alerts; they never fail the call.
func (s *Service) StageFiles(ctx context.Context, id string, candidates []staging.Candidate) ([]StageOutcome, State, error) {
	var (
		out []StageOutcome
		st  State
	)
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		now := s.now()
		results := sess.state.stager.StageBatch(candidates)
		out = make([]StageOutcome, 0, len(results))
		for _, res := range results {
			o := StageOutcome{Name: res.Candidate.Name, Size: res.Candidate.Size}
			var rej *staging.Rejection
			switch {
			case res.Err == nil:
				f := res.File
				o.File = &f
				metrics.IncFilesStaged()
				s.publish(id, events.TypeFileStaged, summary.FileRows([]staging.File{f})[0])
			case errors.As(res.Err, &rej):
				alert := sess.state.alerts.add(rej.Code(), rej.Message(), now, s.alertTTL)
				o.Alert = &alert
				o.Code = rej.Code()
				metrics.IncFilesRejected()
				s.publish(id, events.TypeFileRejected, alert)
				telemetry.Info("wizard.file.rejected", map[string]any{
					"session_id": id,
					"code":       o.Code,
					"size_bytes": res.Candidate.Size,
				})
			default:
				return res.Err
			}
			out = append(out, o)
		}
		st = sess.snapshot(now, s.defaults)
		return nil
	})
	return out, st, err
}

// UnstageFile removes a staged file. Unknown ids are a no-op.
func (s *Service) UnstageFile(ctx context.Context, id, fileID string) (State, error) {
	var st State
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		if sess.state.stager.Unstage(fileID) {
			s.publish(id, events.TypeFileRemoved, map[string]any{"id": fileID})
		}
		st = sess.snapshot(s.now(), s.defaults)
		return nil
	})
	return st, err
}

// Alerts returns the unexpired alerts of a session.
func (s *Service) Alerts(ctx context.Context, id string) ([]Alert, error) {
	var out []Alert
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		out = sess.state.alerts.active(s.now())
		return nil
	})
	return out, err
}

// DismissAlert removes an alert early. Unknown ids are a no-op.
func (s *Service) DismissAlert(ctx context.Context, id, alertID string) error {
	return s.withSession(ctx, id, false, func(sess *Session) error {
		if sess.state.alerts.dismiss(alertID) {
			s.publish(id, events.TypeAlertDismissed, map[string]any{"id": alertID})
		}
		return nil
	})
}

// Summary renders the review view from the current data.
func (s *Service) Summary(ctx context.Context, id string) (summary.View, error) {
	var v summary.View
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		v = summary.Summary(sess.state.record, sess.state.stager.Files())
		return nil
	})
	return v, err
}

// Preview renders the notification message from the current data.
func (s *Service) Preview(ctx context.Context, id string) (string, error) {
	var text string
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		text = summary.MessagePreview(s.portal, sess.state.record, sess.state.stager.Files(), s.now())
		return nil
	})
	return text, err
}

// Export renders the downloadable report and its file name.
func (s *Service) Export(ctx context.Context, id string) (string, string, error) {
	var name, text string
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		now := s.now()
		name = summary.ExportFileName(s.portal.Name, now)
		text = summary.ExportText(s.portal, sess.state.record, sess.state.stager.Files(), now)
		return nil
	})
	return name, text, err
}

// Submit starts the simulated submission. After the configured delay the
// confirmation is recorded from the data present now and the session resets.
func (s *Service) Submit(ctx context.Context, id string) (SubmissionState, error) {
	var out SubmissionState
	err := s.withSession(ctx, id, true, func(sess *Session) error {
		if !s.track() {
			return context.Canceled
		}
		sess.sub.token++
		sess.sub = submission{
			status:    StatusSubmitting,
			token:     sess.sub.token,
			startedAt: s.now(),
			record:    sess.state.record,
			files:     sess.state.stager.Files(),
			done:      make(chan struct{}),
		}
		out = sess.submissionState()
		s.publish(id, events.TypeSubmissionStarted, out)
		telemetry.Info("wizard.submission.started", map[string]any{
			"session_id":  id,
			"total_files": len(sess.sub.files),
		})

		go s.completeSubmission(sess, sess.sub.token)
		return nil
	})
	return out, err
}

func (s *Service) completeSubmission(sess *Session, token int) {
	defer s.wg.Done()

	timer := time.NewTimer(s.submitDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.ctx.Done():
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.sub.token == token && sess.sub.status == StatusSubmitting {
			sess.sub.finish(StatusCancelled)
			metrics.IncSubmissionsCancelled()
		}
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.sub.token != token || sess.sub.status != StatusSubmitting {
		return
	}

	now := s.now()
	conf := &Confirmation{
		ID:          uuid.NewString(),
		SubmittedAt: now,
		Preview:     summary.MessagePreview(s.portal, sess.sub.record, sess.sub.files, now),
		TotalFiles:  len(sess.sub.files),
	}
	elapsed := now.Sub(sess.sub.startedAt)

	sess.state = newWizardState(s.newStager)
	sess.sub.confirmation = conf
	sess.sub.finish(StatusSubmitted)

	metrics.IncSubmissions()
	metrics.ObserveSubmissionDurationMs(float64(elapsed.Microseconds()) / 1000.0)
	s.publish(sess.id, events.TypeSubmissionCompleted, conf)
	s.publish(sess.id, events.TypeSessionReset, nil)
	telemetry.Info("wizard.submission.completed", map[string]any{
		"session_id":      sess.id,
		"confirmation_id": conf.ID,
		"total_files":     conf.TotalFiles,
	})
}

// Submission returns the current submission state.
func (s *Service) Submission(ctx context.Context, id string) (SubmissionState, error) {
	var out SubmissionState
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		out = sess.submissionState()
		return nil
	})
	return out, err
}

// WaitSubmission blocks until a pending submission finishes or ctx ends,
// then returns the submission state.
func (s *Service) WaitSubmission(ctx context.Context, id string) (SubmissionState, error) {
	var done chan struct{}
	err := s.withSession(ctx, id, false, func(sess *Session) error {
		if sess.sub.status == StatusSubmitting {
			done = sess.sub.done
		}
		return nil
	})
	if err != nil {
		return SubmissionState{}, err
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return SubmissionState{}, ctx.Err()
		}
	}
	return s.Submission(ctx, id)
}

func (s *Service) withSession(ctx context.Context, id string, mutates bool, fn func(*Session) error) error {
	if id == "" {
		return ErrInvalidInput
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if mutates && sess.sub.status == StatusSubmitting {
		return ErrSubmissionInProgress
	}
	return fn(sess)
}

func (s *Service) publish(sessionID, typ string, data any) {
	s.hub.Publish(sessionID, events.Event{
		Type:      typ,
		SessionID: sessionID,
		At:        s.now(),
		Data:      data,
	})
}
