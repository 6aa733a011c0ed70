package summary

import (
	"fmt"
	"strings"
	"time"

	"mat-portal/internal/form"
	"mat-portal/internal/shared/util"
	"mat-portal/internal/staging"
)

const (
	dateLayout = "1/2/2006"
	timeLayout = "3:04:05 PM"
)

// Portal carries the branding and addressing used in generated text.
type Portal struct {
	Name        string
	NotifyEmail string
	SenderEmail string
	Location    *time.Location
}

func (p Portal) local(t time.Time) time.Time {
	if p.Location == nil {
		return t
	}
	return t.In(p.Location)
}

// MessagePreview renders the notification that a submission would send.
func MessagePreview(p Portal, rec form.Record, files []staging.File, now time.Time) string {
	local := p.local(now)
	date, clock := local.Format(dateLayout), local.Format(timeLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s Document Portal <%s>\n", p.Name, p.SenderEmail)
	fmt.Fprintf(&b, "To: %s\n", p.NotifyEmail)
	fmt.Fprintf(&b, "Subject: New Document Submission - %s Portal - %s\n", p.Name, orDefault(rec.Personal.Name, "Unknown User"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Dear %s Team,\n\n", p.Name)
	fmt.Fprintf(&b, "A new document upload submission has been received through the %s Document Portal.\n\n", p.Name)
	b.WriteString("Submission Details:\n------------------\n")
	fmt.Fprintf(&b, "Date: %s\nTime: %s\n", date, clock)
	fmt.Fprintf(&b, "Portal: %s Document Upload Portal\n\n", p.Name)

	b.WriteString("PERSONAL DETAILS:\n-----------------\n")
	for _, r := range rows(PersonalLabels, rec.Personal.Value) {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}

	b.WriteString("\nTECHNICAL DETAILS:\n-----------------\n")
	for _, r := range rows(TechnicalLabels, rec.Technical.Value) {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}

	b.WriteString("\nUPLOADED FILES:\n--------------\n")
	if len(files) == 0 {
		b.WriteString(NoFilesNotice + "\n")
	} else {
		for _, f := range files {
			fmt.Fprintf(&b, "• %s (%s)\n", f.Name, staging.FormatSize(f.Size))
		}
	}

	b.WriteString("\nSUMMARY:\n-------\n")
	fmt.Fprintf(&b, "Total Files: %d\n", len(files))
	fmt.Fprintf(&b, "Priority Level: %s\n", orDefault(rec.Technical.Priority, "Not specified"))
	fmt.Fprintf(&b, "Submitter Email: %s\n", orDefault(rec.Personal.Email, "Not provided"))

	fmt.Fprintf(&b, "\n---\nThis email was automatically generated by the %s Document Upload Portal.\n", p.Name)
	b.WriteString("For technical support, please contact your system administrator.\n\n")
	fmt.Fprintf(&b, "%s Document Portal System\n", p.Name)
	fmt.Fprintf(&b, "Processed on: %s at %s", date, clock)
	return b.String()
}

// ExportText renders the downloadable plain-text report. Every field is
// listed, with "N/A" standing in for empty values.
func ExportText(p Portal, rec form.Record, files []staging.File, now time.Time) string {
	local := p.local(now)
	title := strings.ToUpper(p.Name) + " DOCUMENT UPLOAD PORTAL - SUBMISSION SUMMARY"

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString("=================================================\n")
	fmt.Fprintf(&b, "Generated on: %s at %s\n", local.Format(dateLayout), local.Format(timeLayout))
	fmt.Fprintf(&b, "Portal: %s Document Upload Portal\n", p.Name)
	fmt.Fprintf(&b, "Recipient: %s\n\n", p.NotifyEmail)

	per := rec.Personal
	b.WriteString("PERSONAL DETAILS:\n-----------------\n")
	fmt.Fprintf(&b, "Name: %s\n", orNA(per.Name))
	fmt.Fprintf(&b, "Email: %s\n", orNA(per.Email))
	fmt.Fprintf(&b, "Phone: %s\n", orNA(per.Phone))
	fmt.Fprintf(&b, "Organization: %s\n", orNA(per.Organization))
	fmt.Fprintf(&b, "Department: %s\n", orNA(per.Department))
	fmt.Fprintf(&b, "Address: %s\n\n", orNA(per.Address))

	tech := rec.Technical
	b.WriteString("TECHNICAL DETAILS:\n------------------\n")
	fmt.Fprintf(&b, "Project Type: %s\n", orNA(tech.ProjectType))
	fmt.Fprintf(&b, "Priority: %s\n", orNA(tech.Priority))
	fmt.Fprintf(&b, "Specifications: %s\n", orNA(tech.Specifications))
	fmt.Fprintf(&b, "Requirements: %s\n", orNA(tech.Requirements))
	fmt.Fprintf(&b, "Deadline: %s\n", orNA(tech.Deadline))
	fmt.Fprintf(&b, "Notes: %s\n\n", orNA(tech.Notes))

	b.WriteString("UPLOADED FILES:\n---------------\n")
	if len(files) == 0 {
		b.WriteString(NoFilesNotice)
	} else {
		lines := make([]string, 0, len(files))
		for _, f := range files {
			lines = append(lines, fmt.Sprintf("• %s (%s)", f.Name, staging.FormatSize(f.Size)))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")

	b.WriteString("SUMMARY:\n--------\n")
	fmt.Fprintf(&b, "Total Files: %d\n", len(files))
	fmt.Fprintf(&b, "Portal Owner: %s\n", p.Name)
	fmt.Fprintf(&b, "Notification Email: %s\n\n", p.NotifyEmail)

	fmt.Fprintf(&b, "---\nThis summary was generated by the %s Document Upload Portal.\n", p.Name)
	b.WriteString("For questions or support, please contact the portal administrator.\n")
	return b.String()
}

// ExportFileName names the report after the UTC calendar date of now.
func ExportFileName(portalName string, now time.Time) string {
	name := fmt.Sprintf("%s-submission-summary-%s.txt", portalName, now.UTC().Format("2006-01-02"))
	if safe, err := util.SanitizeFileName(name); err == nil {
		return safe
	}
	return "submission-summary.txt"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orNA(v string) string {
	return orDefault(v, "N/A")
}
