package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mat-portal/internal/events"
	"mat-portal/internal/form"
	"mat-portal/internal/shared/server/middleware"
	"mat-portal/internal/shared/server/respond"
	"mat-portal/internal/shared/telemetry"
	"mat-portal/internal/staging"
	"mat-portal/internal/validation"
)

const (
	// maxJSONBatchBody bounds a JSON staging request.
	maxJSONBatchBody = 1 << 20
	// maxBatchParts bounds the number of file parts read from one upload.
	maxBatchParts = 100
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	originPatterns []string
}

// NewHandler constructs a Handler. allowedOrigins are full origins
// ("https://host:port") also accepted for the event stream.
func NewHandler(svc *Service, allowedOrigins []string) *Handler {
	return &Handler{Svc: svc, originPatterns: originHosts(allowedOrigins)}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.get)
	rg.DELETE("/sessions/:id", h.delete)
	rg.POST("/sessions/:id/reset", h.reset)
	rg.POST("/sessions/:id/fields/validate", h.validateField)
	rg.POST("/sessions/:id/steps/:step/advance", h.advance)
	rg.POST("/sessions/:id/steps/:step/retreat", h.retreat)
	rg.POST("/sessions/:id/steps/:step/jump", h.jump)
	rg.GET("/sessions/:id/alerts", h.alerts)
	rg.DELETE("/sessions/:id/alerts/:alertId", h.dismissAlert)
	rg.GET("/sessions/:id/summary", h.summary)
	rg.GET("/sessions/:id/preview", h.preview)
	rg.GET("/sessions/:id/export", h.export)
	rg.POST("/sessions/:id/submit", h.submit)
	rg.GET("/sessions/:id/submission", h.submission)
	rg.GET("/sessions/:id/events", h.events)
}

// RegisterFileRoutes attaches the staging routes. They live on their own
// group so the router can rate limit them.
func (h *Handler) RegisterFileRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/files", h.stageFiles)
	rg.DELETE("/sessions/:id/files/:fileId", h.unstageFile)
}

func (h *Handler) create(c *gin.Context) {
	st, err := h.Svc.Create(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to create session")
		return
	}
	c.Set(middleware.SessionIDKey, st.ID)
	respond.JSON(c, http.StatusCreated, toSessionResponse(st))
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch session")
		return
	}
	respond.OK(c, toSessionResponse(st))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete session")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) reset(c *gin.Context) {
	st, err := h.Svc.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to reset session")
		return
	}
	respond.OK(c, toSessionResponse(st))
}

func (h *Handler) validateField(c *gin.Context) {
	var req validateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	f := validation.Field{Name: strings.TrimSpace(req.Field), Value: req.Value, Kind: req.Kind}
	if spec, ok := form.FieldSpecFor(f.Name); ok {
		if f.Kind == "" {
			f.Kind = spec.Kind
		}
		f.Required = spec.Required
	}
	if f.Kind == "" {
		f.Kind = validation.KindText
	}
	if req.Required != nil {
		f.Required = *req.Required
	}

	fe, ok, err := h.Svc.ValidateField(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		writeError(c, err, "failed to validate field")
		return
	}
	resp := validateFieldResponse{Field: f.Name, Valid: ok}
	if !ok {
		resp.Code = fe.Code
		resp.Message = fe.Message
	}
	respond.OK(c, resp)
}

func (h *Handler) advance(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	var req advanceRequest
	if err := decodeOptionalJSON(c.Request.Body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	st, err := h.Svc.Advance(c.Request.Context(), c.Param("id"), step, req.Fields)
	if err != nil {
		writeError(c, err, "failed to advance step")
		return
	}
	respond.OK(c, toSessionResponse(st))
}

func (h *Handler) retreat(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	st, err := h.Svc.Retreat(c.Request.Context(), c.Param("id"), step)
	if err != nil {
		writeError(c, err, "failed to go back")
		return
	}
	respond.OK(c, toSessionResponse(st))
}

func (h *Handler) jump(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	st, err := h.Svc.JumpTo(c.Request.Context(), c.Param("id"), step)
	if err != nil {
		writeError(c, err, "failed to change step")
		return
	}
	respond.OK(c, toSessionResponse(st))
}

func (h *Handler) stageFiles(c *gin.Context) {
	c.Set(middleware.StepKey, 3)

	var (
		candidates []staging.Candidate
		err        error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		candidates, err = multipartCandidates(c)
	} else {
		candidates, err = jsonCandidates(c)
	}
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	outcomes, st, err := h.Svc.StageFiles(c.Request.Context(), c.Param("id"), candidates)
	if err != nil {
		writeError(c, err, "failed to stage files")
		return
	}
	respond.OK(c, toStageFilesResponse(outcomes, st))
}

func jsonCandidates(c *gin.Context) ([]staging.Candidate, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBatchBody)
	var req stageFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errors.New("files must be a non-empty list of {name, size} with size >= 0")
	}
	out := make([]staging.Candidate, 0, len(req.Files))
	for _, f := range req.Files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, errors.New("file name is required")
		}
		out = append(out, staging.Candidate{Name: f.Name, Size: f.Size})
	}
	return out, nil
}

// multipartCandidates streams the "files" parts, counting each part's bytes
// and discarding them. Counting stops one byte past the staging limit, so an
// oversize part reports a size just over the limit and is rejected as too
// large on its own.
func multipartCandidates(c *gin.Context) ([]staging.Candidate, error) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, errors.New("invalid multipart body")
	}

	var out []staging.Candidate
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("invalid multipart body")
		}
		if part.FormName() != "files" {
			_ = part.Close()
			continue
		}
		name := part.FileName()
		if strings.TrimSpace(name) == "" {
			_ = part.Close()
			return nil, errors.New("file name is required")
		}
		if len(out) == maxBatchParts {
			_ = part.Close()
			return nil, fmt.Errorf("at most %d files per upload", maxBatchParts)
		}
		size, err := io.Copy(io.Discard, io.LimitReader(part, staging.MaxFileSize+1))
		_ = part.Close()
		if err != nil {
			return nil, errors.New("invalid multipart body")
		}
		out = append(out, staging.Candidate{Name: name, Size: size})
	}
	if len(out) == 0 {
		return nil, errors.New("files are required")
	}
	return out, nil
}

func (h *Handler) unstageFile(c *gin.Context) {
	fileID := c.Param("fileId")
	c.Set(middleware.FileIDKey, fileID)
	if _, err := h.Svc.UnstageFile(c.Request.Context(), c.Param("id"), fileID); err != nil {
		writeError(c, err, "failed to remove file")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) alerts(c *gin.Context) {
	alerts, err := h.Svc.Alerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	respond.OK(c, alerts)
}

func (h *Handler) dismissAlert(c *gin.Context) {
	if err := h.Svc.DismissAlert(c.Request.Context(), c.Param("id"), c.Param("alertId")); err != nil {
		writeError(c, err, "failed to dismiss alert")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) summary(c *gin.Context) {
	view, err := h.Svc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to build summary")
		return
	}
	respond.OK(c, view)
}

func (h *Handler) preview(c *gin.Context) {
	text, err := h.Svc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to build preview")
		return
	}
	respond.OK(c, previewResponse{Preview: text})
}

func (h *Handler) export(c *gin.Context) {
	name, text, err := h.Svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to export summary")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *Handler) submit(c *gin.Context) {
	sub, err := h.Svc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to submit")
		return
	}
	respond.JSON(c, http.StatusAccepted, sub)
}

func (h *Handler) submission(c *gin.Context) {
	sub, err := h.Svc.Submission(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch submission")
		return
	}
	respond.OK(c, sub)
}

func (h *Handler) events(c *gin.Context) {
	id := c.Param("id")
	codec, err := events.CodecFor(c.Query("codec"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "codec must be json or msgpack", nil)
		return
	}
	if _, err := h.Svc.Get(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to open event stream")
		return
	}

	// The snapshot is taken after subscribing so no event falls between them.
	snapshot := func() ([]events.Event, error) {
		st, err := h.Svc.Get(c.Request.Context(), id)
		if err != nil {
			return nil, err
		}
		return []events.Event{{
			Type:      events.TypeSessionSnapshot,
			SessionID: id,
			At:        h.Svc.now(),
			Data:      toSessionResponse(st),
		}}, nil
	}
	err = events.Stream(c.Writer, c.Request, h.Svc.Hub(), id, events.StreamOptions{
		OriginPatterns: h.originPatterns,
		Codec:          codec,
		Initial:        snapshot,
	})
	if err != nil {
		telemetry.Warn("wizard.events.stream_ended", map[string]any{
			"session_id": id,
			"codec":      codec.Name(),
			"err":        err.Error(),
		})
	}
}

func stepParam(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "step must be a number", nil)
		return 0, false
	}
	c.Set(middleware.StepKey, step)
	return step, true
}

func writeError(c *gin.Context, err error, fallback string) {
	var stepErr *StepError
	switch {
	case errors.As(err, &stepErr):
		respond.Error(c, http.StatusUnprocessableEntity, "step_invalid", "please fix the highlighted fields", stepErrorDetails{
			Step:   stepErr.Step,
			Fields: stepErr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", nil)
	case errors.Is(err, ErrInvalidStep):
		respond.Error(c, http.StatusBadRequest, "validation_error", "step must be between 1 and 3", nil)
	case errors.Is(err, ErrSubmissionInProgress):
		respond.Error(c, http.StatusConflict, "submission_in_progress", "submission in progress", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func decodeOptionalJSON(body io.ReadCloser, out any) error {
	if body == nil {
		return nil
	}
	var errInvalidJSON = errors.New("invalid json body")
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidJSON
	}
	return nil
}

// originHosts turns configured origins into the host patterns the websocket
// accept check expects.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
