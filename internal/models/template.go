package models

// ProjectTemplate is a row of project_templates.
type ProjectTemplate struct {
	TemplateID  string `db:"template_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Attributes  []byte `db:"attributes"`
	AuditFields
}
