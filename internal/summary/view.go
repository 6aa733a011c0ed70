// Package summary derives the review panel, notification preview and
// downloadable report from captured form data and staged files.
package summary

import (
	"mat-portal/internal/form"
	"mat-portal/internal/staging"
)

// NoFilesNotice is shown when nothing is staged.
const NoFilesNotice = "No files uploaded"

// Row is one labelled value.
type Row struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// FileRow is one staged file prepared for display.
type FileRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	Size      string `json:"size"`
	Extension string `json:"extension"`
	Icon      string `json:"icon"`
}

// View is the review summary.
type View struct {
	Personal    []Row     `json:"personal"`
	Technical   []Row     `json:"technical"`
	Files       []FileRow `json:"files"`
	FilesNotice string    `json:"filesNotice,omitempty"`
	TotalFiles  int       `json:"totalFiles"`
}

// Summary builds the review view. Rows with empty values are omitted.
func Summary(rec form.Record, files []staging.File) View {
	v := View{
		Personal:   rows(PersonalLabels, rec.Personal.Value),
		Technical:  rows(TechnicalLabels, rec.Technical.Value),
		Files:      FileRows(files),
		TotalFiles: len(files),
	}
	if len(files) == 0 {
		v.FilesNotice = NoFilesNotice
	}
	return v
}

// FileRows converts staged files for display.
func FileRows(files []staging.File) []FileRow {
	out := make([]FileRow, 0, len(files))
	for _, f := range files {
		out = append(out, FileRow{
			ID:        f.ID,
			Name:      f.Name,
			SizeBytes: f.Size,
			Size:      staging.FormatSize(f.Size),
			Extension: f.Extension,
			Icon:      staging.Icon(f.Extension),
		})
	}
	return out
}

func rows(labels []Label, value func(string) string) []Row {
	out := make([]Row, 0, len(labels))
	for _, l := range labels {
		if v := value(l.Key); v != "" {
			out = append(out, Row{Key: l.Key, Label: l.Label, Value: v})
		}
	}
	return out
}
