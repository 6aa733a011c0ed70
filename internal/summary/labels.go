package summary

// Label pairs a field key with its display label.
type Label struct {
	Key   string
	Label string
}

// PersonalLabels lists the personal rows in display order.
var PersonalLabels = []Label{
	{Key: "name", Label: "Full Name"},
	{Key: "email", Label: "Email Address"},
	{Key: "phone", Label: "Phone Number"},
	{Key: "organization", Label: "Organization/Company"},
	{Key: "department", Label: "Department/Position"},
	{Key: "address", Label: "Address"},
}

// TechnicalLabels lists the technical rows in display order.
var TechnicalLabels = []Label{
	{Key: "projectType", Label: "Project Type/Category"},
	{Key: "priority", Label: "Priority Level"},
	{Key: "specifications", Label: "Technical Specifications"},
	{Key: "requirements", Label: "Requirements Description"},
	{Key: "deadline", Label: "Deadline/Timeline"},
	{Key: "notes", Label: "Additional Notes"},
}
