package models

// Role titles stored in the roles table
const (
	RoleStudent   = "Student"
	RoleEnabler   = "Enabler"
	RoleAppraiser = "Appraiser"
	RoleAdmins    = "Admins"
)

// OrgType classifies an organization
type OrgType string

const (
	OrgTypeCollege   OrgType = "College"
	OrgTypeCompany   OrgType = "Company"
	OrgTypeCommunity OrgType = "Community"
)

// Valid reports whether t is a known organization type
func (t OrgType) Valid() bool {
	switch t {
	case OrgTypeCollege, OrgTypeCompany, OrgTypeCommunity:
		return true
	}
	return false
}

// Integration names stored in the integrations table
const (
	IntegrationKKEM    = "KKEM"
	IntegrationDiscord = "Discord"
)
