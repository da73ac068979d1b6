package domain

import (
	"fmt"
	"time"
)

// EntityKind discriminates the owned business records stored in the entities table.
type EntityKind string

const (
	KindCompany     EntityKind = "company"
	KindAgente      EntityKind = "agente"
	KindSportello   EntityKind = "sportello"
	KindSegnalatore EntityKind = "segnalatore"
	KindSupplier    EntityKind = "supplier"
	KindProject     EntityKind = "project"
	KindEmployee    EntityKind = "employee"
)

// ParseEntityKind validates a raw kind string.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if _, ok := entitySchemas[k]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}

// Attachment is the metadata of an uploaded document stored with an entity.
type Attachment struct {
	FileName   string    `json:"fileName"`
	StoredName string    `json:"storedName"`
	Path       string    `json:"path"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Entity is an owned business record. Approval is nil for kinds without an approval lifecycle.
type Entity struct {
	EntityID    string         `json:"entityID"`
	Kind        EntityKind     `json:"kind"`
	OwnerID     string         `json:"ownerID"`
	Name        string         `json:"name"`
	VATNumber   *string        `json:"vatNumber,omitempty"`
	TaxCode     *string        `json:"taxCode,omitempty"`
	Email       *string        `json:"email,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Address     *string        `json:"address,omitempty"`
	City        *string        `json:"city,omitempty"`
	Province    *string        `json:"province,omitempty"`
	PostalCode  *string        `json:"postalCode,omitempty"`
	CompanyID   *string        `json:"companyID,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Attachments []Attachment   `json:"attachments"`
	Approval    *ApprovalState `json:"approval,omitempty"`
	AuditFields
}

// Field returns the value of a named business field, used by required-field validation.
func (e Entity) Field(name string) string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	switch name {
	case FieldName:
		return e.Name
	case FieldVATNumber:
		return deref(e.VATNumber)
	case FieldTaxCode:
		return deref(e.TaxCode)
	case FieldEmail:
		return deref(e.Email)
	case FieldPhone:
		return deref(e.Phone)
	case FieldAddress:
		return deref(e.Address)
	case FieldCity:
		return deref(e.City)
	case FieldProvince:
		return deref(e.Province)
	case FieldPostalCode:
		return deref(e.PostalCode)
	case FieldCompanyID:
		return deref(e.CompanyID)
	}
	if v, ok := e.Attributes[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// EntityFilter narrows list queries. Global disables the owner filter.
type EntityFilter struct {
	Kind      EntityKind
	OwnerIDs  []string
	Global    bool
	CompanyID *string
	Search    string
	Status    *ApprovalStatus
	Page
}
