package form

import "mat-portal/internal/validation"

// Wizard steps.
const (
	StepPersonal  = 1
	StepTechnical = 2
	StepFiles     = 3

	TotalSteps = 3
)

// FieldSpec describes one input of a step.
type FieldSpec struct {
	Key      string          `json:"key"`
	Kind     validation.Kind `json:"kind"`
	Required bool            `json:"required"`
}

var stepFields = map[int][]FieldSpec{
	StepPersonal: {
		{Key: "name", Kind: validation.KindText, Required: true},
		{Key: "email", Kind: validation.KindEmail, Required: true},
		{Key: "phone", Kind: validation.KindTel},
		{Key: "organization", Kind: validation.KindText},
		{Key: "department", Kind: validation.KindText},
		{Key: "address", Kind: validation.KindText},
	},
	StepTechnical: {
		{Key: "projectType", Kind: validation.KindText, Required: true},
		{Key: "priority", Kind: validation.KindText},
		{Key: "specifications", Kind: validation.KindText},
		{Key: "requirements", Kind: validation.KindText, Required: true},
		{Key: "deadline", Kind: validation.KindText},
		{Key: "notes", Kind: validation.KindText},
	},
}

// Fields returns the inputs of step in form order. Step 3 has none.
func Fields(step int) []FieldSpec {
	return append([]FieldSpec(nil), stepFields[step]...)
}

// FieldSpecFor looks up a field by key across all steps.
func FieldSpecFor(key string) (FieldSpec, bool) {
	for _, step := range []int{StepPersonal, StepTechnical} {
		for _, f := range stepFields[step] {
			if f.Key == key {
				return f, true
			}
		}
	}
	return FieldSpec{}, false
}

// Personal holds step 1 values.
type Personal struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	Department   string `json:"department"`
	Address      string `json:"address"`
}

// Value returns the value stored under key, or "" for unknown keys.
func (p Personal) Value(key string) string {
	switch key {
	case "name":
		return p.Name
	case "email":
		return p.Email
	case "phone":
		return p.Phone
	case "organization":
		return p.Organization
	case "department":
		return p.Department
	case "address":
		return p.Address
	}
	return ""
}

// Technical holds step 2 values.
type Technical struct {
	ProjectType    string `json:"projectType"`
	Priority       string `json:"priority"`
	Specifications string `json:"specifications"`
	Requirements   string `json:"requirements"`
	Deadline       string `json:"deadline"`
	Notes          string `json:"notes"`
}

// Value returns the value stored under key, or "" for unknown keys.
func (t Technical) Value(key string) string {
	switch key {
	case "projectType":
		return t.ProjectType
	case "priority":
		return t.Priority
	case "specifications":
		return t.Specifications
	case "requirements":
		return t.Requirements
	case "deadline":
		return t.Deadline
	case "notes":
		return t.Notes
	}
	return ""
}

// Record is the captured data of the form steps.
type Record struct {
	Personal  Personal  `json:"personal"`
	Technical Technical `json:"technical"`
}

// Capture replaces the section of step with values. Keys outside the step's
// field set are ignored and missing keys are stored as "". It reports
// whether step has a section to capture.
func (r *Record) Capture(step int, values map[string]string) bool {
	switch step {
	case StepPersonal:
		r.Personal = Personal{
			Name:         values["name"],
			Email:        values["email"],
			Phone:        values["phone"],
			Organization: values["organization"],
			Department:   values["department"],
			Address:      values["address"],
		}
		return true
	case StepTechnical:
		r.Technical = Technical{
			ProjectType:    values["projectType"],
			Priority:       values["priority"],
			Specifications: values["specifications"],
			Requirements:   values["requirements"],
			Deadline:       values["deadline"],
			Notes:          values["notes"],
		}
		return true
	}
	return false
}

// Validate checks the required fields of step against values.
func Validate(step int, values map[string]string) []validation.FieldError {
	var fields []validation.Field
	for _, spec := range stepFields[step] {
		if !spec.Required {
			continue
		}
		fields = append(fields, validation.Field{
			Name:     spec.Key,
			Value:    values[spec.Key],
			Kind:     spec.Kind,
			Required: true,
		})
	}
	return validation.CheckAll(fields)
}
