package domain

// ProjectTemplate is a reusable project blueprint instantiated for many companies at once.
type ProjectTemplate struct {
	TemplateID  string         `json:"templateID"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	AuditFields
}
