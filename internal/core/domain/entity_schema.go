package domain

// Field names shared by schemas, validation messages and unique constraints.
const (
	FieldName       = "name"
	FieldVATNumber  = "vatNumber"
	FieldTaxCode    = "taxCode"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldProvince   = "province"
	FieldPostalCode = "postalCode"
	FieldCompanyID  = "companyId"
)

// EntitySchema configures the generic owned-entity component for one kind.
type EntitySchema struct {
	Kind  EntityKind
	Label string
	// Approvable kinds carry an ApprovalState.
	Approvable bool
	// ApprovalRequiredRoles create pending records; privileged roles auto-approve;
	// any other role may not create an approvable kind.
	ApprovalRequiredRoles []UserRole
	RequiredFields        []string
	ApprovalType          ApprovalType
}

var entitySchemas = map[EntityKind]EntitySchema{
	KindCompany: {
		Kind:                  KindCompany,
		Label:                 "Azienda",
		Approvable:            true,
		ApprovalRequiredRoles: []UserRole{RoleResponsabileTerritoriale, RoleSportelloLavoro},
		RequiredFields:        []string{FieldName, FieldVATNumber},
		ApprovalType:          ApprovalTypeCompany,
	},
	KindSportello: {
		Kind:                  KindSportello,
		Label:                 "Sportello Lavoro",
		Approvable:            true,
		ApprovalRequiredRoles: []UserRole{RoleResponsabileTerritoriale},
		RequiredFields:        []string{FieldName, FieldVATNumber, FieldEmail},
		ApprovalType:          ApprovalTypeSportello,
	},
	KindAgente: {
		Kind:                  KindAgente,
		Label:                 "Agente",
		Approvable:            true,
		ApprovalRequiredRoles: []UserRole{RoleResponsabileTerritoriale},
		RequiredFields:        []string{FieldName, FieldEmail, FieldTaxCode},
		ApprovalType:          ApprovalTypeAgente,
	},
	KindSegnalatore: {
		Kind:                  KindSegnalatore,
		Label:                 "Segnalatore",
		Approvable:            true,
		ApprovalRequiredRoles: []UserRole{RoleResponsabileTerritoriale, RoleSportelloLavoro},
		RequiredFields:        []string{FieldName, FieldEmail, FieldTaxCode},
		ApprovalType:          ApprovalTypeSegnalatore,
	},
	KindSupplier: {
		Kind:           KindSupplier,
		Label:          "Fornitore",
		RequiredFields: []string{FieldName, FieldVATNumber},
	},
	KindProject: {
		Kind:           KindProject,
		Label:          "Progetto",
		RequiredFields: []string{FieldName, FieldCompanyID},
	},
	KindEmployee: {
		Kind:           KindEmployee,
		Label:          "Dipendente",
		RequiredFields: []string{FieldName, FieldTaxCode, FieldCompanyID},
	},
}

// UserApprovalRequiredRoles are the creator roles whose new users start pending.
// Public self-registration is handled separately and always starts pending.
var UserApprovalRequiredRoles = []UserRole{RoleResponsabileTerritoriale, RoleSportelloLavoro}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind EntityKind) (EntitySchema, bool) {
	s, ok := entitySchemas[kind]
	return s, ok
}

// EntityKinds returns every registered kind.
func EntityKinds() []EntityKind {
	return []EntityKind{KindCompany, KindAgente, KindSportello, KindSegnalatore, KindSupplier, KindProject, KindEmployee}
}

// ApprovableKinds returns the kinds carrying an approval lifecycle.
func ApprovableKinds() []EntityKind {
	var kinds []EntityKind
	for _, k := range EntityKinds() {
		if entitySchemas[k].Approvable {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// CanCreate reports whether role may create records of this kind.
func (s EntitySchema) CanCreate(role UserRole) bool {
	if !s.Approvable || role.IsPrivileged() {
		return true
	}
	return s.RequiresApproval(role)
}

// RequiresApproval reports whether a record created by role starts pending.
func (s EntitySchema) RequiresApproval(role UserRole) bool {
	for _, r := range s.ApprovalRequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// MissingFields lists the required fields that are empty on e.
func (s EntitySchema) MissingFields(e Entity) []string {
	var missing []string
	for _, f := range s.RequiredFields {
		if e.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// PendingNotificationType is the notification tag emitted when a record of this kind awaits approval.
func (s EntitySchema) PendingNotificationType() NotificationType {
	return PendingNotificationType(s.ApprovalType)
}
