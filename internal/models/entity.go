package models

// Entity is a row of the entities table. Attributes and attachments are jsonb columns.
type Entity struct {
	EntityID    string  `db:"entity_id"`
	Kind        string  `db:"kind"`
	OwnerID     string  `db:"owner_id"`
	Name        string  `db:"name"`
	VATNumber   *string `db:"vat_number"`
	TaxCode     *string `db:"tax_code"`
	Email       *string `db:"email"`
	Phone       *string `db:"phone"`
	Address     *string `db:"address"`
	City        *string `db:"city"`
	Province    *string `db:"province"`
	PostalCode  *string `db:"postal_code"`
	CompanyID   *string `db:"company_id"`
	Attributes  []byte  `db:"attributes"`
	Attachments []byte  `db:"attachments"`
	ApprovalColumns
	AuditFields
}
