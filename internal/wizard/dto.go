package wizard

import (
	"time"

	"mat-portal/internal/form"
	"mat-portal/internal/staging"
	"mat-portal/internal/summary"
	"mat-portal/internal/validation"
)

type sessionResponse struct {
	SessionID  string            `json:"sessionId"`
	CreatedAt  time.Time         `json:"createdAt"`
	Step       int               `json:"step"`
	Progress   Progress          `json:"progress"`
	StepFields []form.FieldSpec  `json:"stepFields"`
	Personal   form.Personal     `json:"personal"`
	Technical  form.Technical    `json:"technical"`
	Files      []summary.FileRow `json:"files"`
	Alerts     []Alert           `json:"alerts"`
	Defaults   Defaults          `json:"defaults"`
	Submission SubmissionState   `json:"submission"`
}

func toSessionResponse(st State) sessionResponse {
	alerts := st.Alerts
	if alerts == nil {
		alerts = []Alert{}
	}
	return sessionResponse{
		SessionID:  st.ID,
		CreatedAt:  st.CreatedAt,
		Step:       st.Progress.Current,
		Progress:   st.Progress,
		StepFields: form.Fields(st.Progress.Current),
		Personal:   st.Record.Personal,
		Technical:  st.Record.Technical,
		Files:      summary.FileRows(st.Files),
		Alerts:     alerts,
		Defaults:   st.Defaults,
		Submission: st.Submission,
	}
}

type validateFieldRequest struct {
	Field    string          `json:"field" binding:"required"`
	Value    string          `json:"value"`
	Kind     validation.Kind `json:"kind" binding:"omitempty,oneof=text email tel"`
	Required *bool           `json:"required"`
}

type validateFieldResponse struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type advanceRequest struct {
	Fields map[string]string `json:"fields"`
}

type stepErrorDetails struct {
	Step   int                     `json:"step"`
	Fields []validation.FieldError `json:"fields"`
}

type stageFileRequest struct {
	Name string `json:"name" binding:"required"`
	Size int64  `json:"size" binding:"gte=0"`
}

type stageFilesRequest struct {
	Files []stageFileRequest `json:"files" binding:"required,min=1,dive"`
}

type stageOutcomeResponse struct {
	Name     string           `json:"name"`
	Size     int64            `json:"size"`
	Accepted bool             `json:"accepted"`
	File     *summary.FileRow `json:"file,omitempty"`
	Code     string           `json:"code,omitempty"`
	Alert    *Alert           `json:"alert,omitempty"`
}

type stageFilesResponse struct {
	Results []stageOutcomeResponse `json:"results"`
	Session sessionResponse        `json:"session"`
}

func toStageFilesResponse(outcomes []StageOutcome, st State) stageFilesResponse {
	resp := stageFilesResponse{
		Results: make([]stageOutcomeResponse, 0, len(outcomes)),
		Session: toSessionResponse(st),
	}
	for _, o := range outcomes {
		r := stageOutcomeResponse{
			Name:     o.Name,
			Size:     o.Size,
			Accepted: o.File != nil,
			Code:     o.Code,
			Alert:    o.Alert,
		}
		if o.File != nil {
			row := summary.FileRows([]staging.File{*o.File})[0]
			r.File = &row
		}
		resp.Results = append(resp.Results, r)
	}
	return resp
}

type previewResponse struct {
	Preview string `json:"preview"`
}
