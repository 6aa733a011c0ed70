package wizard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mat-portal/internal/events"
	"mat-portal/internal/form"
	"mat-portal/internal/staging"
	"mat-portal/internal/summary"
	"mat-portal/internal/validation"
)

func newTestService(t *testing.T, clock *fakeClock, delay time.Duration) *Service {
	t.Helper()
	svc := NewService(Options{
		Repo: NewMemoryRepo(time.Minute, clock.Now),
		Hub:  events.NewHub(16),
		Portal: summary.Portal{
			Name:        "MAT",
			NotifyEmail: "atozclientmail@gmail.com",
			SenderEmail: "noreply@matportal.com",
			Location:    time.UTC,
		},
		Defaults:    Defaults{Name: "MAT", Email: "atozclientmail@gmail.com"},
		SubmitDelay: delay,
		AlertTTL:    5 * time.Second,
		Now:         clock.Now,
	})
	t.Cleanup(svc.Close)
	return svc
}

func fillTextSteps(t *testing.T, svc *Service, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Advance(ctx, id, 1, validPersonal())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, id, 2, validTechnical())
	require.NoError(t, err)
}

func TestServiceCreateStartsFresh(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)

	st, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, 1, st.Progress.Current)
	assert.Equal(t, form.Record{}, st.Record)
	assert.Empty(t, st.Files)
	assert.Equal(t, "MAT", st.Defaults.Name)
	assert.Equal(t, StatusIdle, st.Submission.Status)
}

func TestServiceUnknownSession(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrNotFound)
}

func TestServiceAdvanceFailureLeavesState(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, st.ID, 1, map[string]string{"name": "Ada", "email": "not-an-email"})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Len(t, stepErr.Fields, 1)
	assert.Equal(t, validation.CodeInvalidEmailShape, stepErr.Fields[0].Code)

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress.Current)
	assert.Equal(t, form.Personal{}, got.Record.Personal)
}

func TestServiceNavigationRoundTrip(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	fillTextSteps(t, svc, st.ID)

	got, err := svc.Retreat(ctx, st.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Progress.Current)
	assert.Equal(t, "Bridge", got.Record.Technical.ProjectType)

	got, err = svc.JumpTo(ctx, st.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress.Current)
	assert.Equal(t, "Ada", got.Record.Personal.Name)

	_, err = svc.JumpTo(ctx, st.ID, 4)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestServiceStageFilesRaisesAlerts(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, clock, time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	outcomes, got, err := svc.StageFiles(ctx, st.ID, []staging.Candidate{
		{Name: "plan.pdf", Size: 2048},
		{Name: "tool.exe", Size: 10},
		{Name: "huge.zip", Size: staging.MaxFileSize + 1},
		{Name: "plan.pdf", Size: 2048},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	require.NotNil(t, outcomes[0].File)
	assert.Equal(t, ".pdf", outcomes[0].File.Extension)
	assert.Equal(t, staging.CodeUnsupportedType, outcomes[1].Code)
	assert.Equal(t, staging.CodeTooLarge, outcomes[2].Code)
	assert.Equal(t, staging.CodeDuplicate, outcomes[3].Code)
	require.NotNil(t, outcomes[1].Alert)
	assert.Equal(t, "File type .exe is not supported. Supported types: .pdf, .doc, .docx, .txt, .jpg, .png, .zip", outcomes[1].Alert.Message)

	require.Len(t, got.Files, 1)
	require.Len(t, got.Alerts, 3)

	clock.Advance(6 * time.Second)
	alerts, err := svc.Alerts(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestServiceDismissAndUnstage(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	outcomes, _, err := svc.StageFiles(ctx, st.ID, []staging.Candidate{
		{Name: "a.txt", Size: 1},
		{Name: "b.bin", Size: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DismissAlert(ctx, st.ID, outcomes[1].Alert.ID))
	require.NoError(t, svc.DismissAlert(ctx, st.ID, "unknown"))
	alerts, err := svc.Alerts(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	got, err := svc.UnstageFile(ctx, st.ID, "unknown")
	require.NoError(t, err)
	assert.Len(t, got.Files, 1)

	got, err = svc.UnstageFile(ctx, st.ID, outcomes[0].File.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
}

func TestServiceRenderers(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)
	fillTextSteps(t, svc, st.ID)
	_, _, err = svc.StageFiles(ctx, st.ID, []staging.Candidate{{Name: "plan.pdf", Size: 1536}})
	require.NoError(t, err)

	view, err := svc.Summary(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalFiles)
	assert.Equal(t, "1.5 KB", view.Files[0].Size)

	preview, err := svc.Preview(ctx, st.ID)
	require.NoError(t, err)
	assert.Contains(t, preview, "Subject: New Document Submission - MAT Portal - Ada")
	assert.Contains(t, preview, "• plan.pdf (1.5 KB)")

	name, text, err := svc.Export(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "MAT-submission-summary-2026-03-05.txt", name)
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestServiceSubmitCompletesAndResets(t *testing.T) {
	svc := newTestService(t, newFakeClock(), 20*time.Millisecond)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)
	fillTextSteps(t, svc, st.ID)
	_, _, err = svc.StageFiles(ctx, st.ID, []staging.Candidate{{Name: "plan.pdf", Size: 10}})
	require.NoError(t, err)

	evs, cancel := svc.Hub().Subscribe(st.ID)
	defer cancel()

	sub, err := svc.Submit(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitting, sub.Status)
	require.NotNil(t, sub.StartedAt)

	_, err = svc.Submit(ctx, st.ID)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = svc.Advance(ctx, st.ID, 3, nil)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, _, err = svc.StageFiles(ctx, st.ID, []staging.Candidate{{Name: "x.pdf", Size: 1}})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	sub, err = svc.WaitSubmission(waitCtx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, sub.Status)
	require.NotNil(t, sub.Confirmation)
	assert.Equal(t, 1, sub.Confirmation.TotalFiles)
	assert.Contains(t, sub.Confirmation.Preview, "Full Name: Ada")

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress.Current)
	assert.Equal(t, form.Record{}, got.Record)
	assert.Empty(t, got.Files)

	var types []string
	for len(evs) > 0 {
		types = append(types, (<-evs).Type)
	}
	assert.Equal(t, []string{
		events.TypeSubmissionStarted,
		events.TypeSubmissionCompleted,
		events.TypeSessionReset,
	}, types)
}

func TestServiceDeleteCancelsSubmission(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Hour)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)
	sess, err := svc.repo.Get(ctx, st.ID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, st.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, st.ID))

	sess.mu.Lock()
	status := sess.sub.status
	sess.mu.Unlock()
	assert.Equal(t, StatusCancelled, status)

	_, err = svc.Get(ctx, st.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCloseCancelsPendingSubmission(t *testing.T) {
	clock := newFakeClock()
	svc := NewService(Options{SubmitDelay: time.Hour, Now: clock.Now})
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, st.ID)
	require.NoError(t, err)

	svc.Close()

	sub, err := svc.Submission(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, sub.Status)
	assert.Nil(t, sub.Confirmation)

	_, err = svc.Submit(ctx, st.ID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceSubmitRacingClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		svc := NewService(Options{SubmitDelay: time.Hour})
		ctx := context.Background()
		ids := make([]string, 8)
		for j := range ids {
			st, err := svc.Create(ctx)
			require.NoError(t, err)
			ids[j] = st.ID
		}

		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := svc.Submit(ctx, id); err != nil {
					assert.ErrorIs(t, err, context.Canceled)
				}
			}(id)
		}
		svc.Close()
		wg.Wait()

		for _, id := range ids {
			sub, err := svc.Submission(ctx, id)
			require.NoError(t, err)
			assert.NotEqual(t, StatusSubmitting, sub.Status)
		}
	}
}

func TestServiceResetDiscardsEverything(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)
	fillTextSteps(t, svc, st.ID)
	_, _, err = svc.StageFiles(ctx, st.ID, []staging.Candidate{{Name: "a.pdf", Size: 1}, {Name: "b.exe", Size: 1}})
	require.NoError(t, err)

	got, err := svc.Reset(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Progress.Current)
	assert.Equal(t, form.Record{}, got.Record)
	assert.Empty(t, got.Files)
	assert.Empty(t, got.Alerts)
}

func TestServiceValidateField(t *testing.T) {
	svc := newTestService(t, newFakeClock(), time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	fe, ok, err := svc.ValidateField(ctx, st.ID, validation.Field{Name: "phone", Value: "12", Kind: validation.KindTel})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Please enter a valid phone number", fe.Message)

	_, ok, err = svc.ValidateField(ctx, st.ID, validation.Field{Name: "phone", Value: "", Kind: validation.KindTel})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServiceSweepClosesExpiredStreams(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, clock, time.Second)
	ctx := context.Background()
	st, err := svc.Create(ctx)
	require.NoError(t, err)

	evs, cancel := svc.Hub().Subscribe(st.ID)
	defer cancel()

	clock.Advance(2 * time.Minute)
	svc.sweep()

	_, ok := <-evs
	assert.False(t, ok)
	_, err = svc.Get(ctx, st.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
