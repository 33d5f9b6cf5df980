package models

// Location is a node of the Country > State > Zone > District hierarchy
type Location struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID string `json:"parentId,omitempty" db:"parent_id"`
}

// LocationLevel names one tier of the location hierarchy
type LocationLevel string

const (
	LevelCountry  LocationLevel = "country"
	LevelState    LocationLevel = "state"
	LevelZone     LocationLevel = "zone"
	LevelDistrict LocationLevel = "district"
)

// Organization is a college, company or community
type Organization struct {
	ID         string  `json:"id" db:"id"`
	Title      string  `json:"title" db:"title"`
	Code       string  `json:"code" db:"code"`
	OrgType    OrgType `json:"orgType" db:"org_type"`
	DistrictID *string `json:"districtId,omitempty" db:"district_id"`
}

// OrganizationDetail adds aggregates to an organization
type OrganizationDetail struct {
	Organization
	DistrictName string `json:"districtName,omitempty"`
	MemberCount  int64  `json:"memberCount"`
	TotalKarma   int64  `json:"totalKarma"`
}
