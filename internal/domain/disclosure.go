package domain

import "strconv"

// FieldKey names a personal-data attribute that can be attached to a message.
type FieldKey string

const (
	FieldFullName             FieldKey = "full_name"
	FieldAddress              FieldKey = "address"
	FieldBirthYear            FieldKey = "birth_year"
	FieldGender               FieldKey = "gender"
	FieldPoliticalAffiliation FieldKey = "political_affiliation"
	FieldEducation            FieldKey = "education"
	FieldProfession           FieldKey = "profession"
	FieldMilitaryService      FieldKey = "military_service"
)

// FieldCatalog is the fixed, ordered disclosure catalog.
var FieldCatalog = []FieldKey{
	FieldFullName,
	FieldAddress,
	FieldBirthYear,
	FieldGender,
	FieldPoliticalAffiliation,
	FieldEducation,
	FieldProfession,
	FieldMilitaryService,
}

var fieldLabels = map[FieldKey]string{
	FieldFullName:             "Full name",
	FieldAddress:              "Address",
	FieldBirthYear:            "Birth year",
	FieldGender:               "Gender",
	FieldPoliticalAffiliation: "Political affiliation",
	FieldEducation:            "Education",
	FieldProfession:           "Profession",
	FieldMilitaryService:      "Military service",
}

func ParseFieldKey(s string) (FieldKey, bool) {
	k := FieldKey(s)
	_, ok := fieldLabels[k]
	return k, ok
}

func (k FieldKey) Label() string {
	if l, ok := fieldLabels[k]; ok {
		return l
	}
	return string(k)
}

// UserProfile is the profile of an authenticated account.
type UserProfile struct {
	UserID               UserID `json:"user_id"`
	Email                string `json:"email"`
	FullName             string `json:"full_name,omitempty"`
	Address              string `json:"address,omitempty"`
	City                 string `json:"city,omitempty"`
	State                string `json:"state,omitempty"`
	ZipCode              string `json:"zip_code,omitempty"`
	BirthYear            int    `json:"birth_year,omitempty"`
	Gender               string `json:"gender,omitempty"`
	PoliticalAffiliation string `json:"political_affiliation,omitempty"`
	Education            string `json:"education,omitempty"`
	Profession           string `json:"profession,omitempty"`
	MilitaryService      string `json:"military_service,omitempty"`
}

// Field returns the profile value for a disclosure field, or "" when unset.
func (p *UserProfile) Field(k FieldKey) string {
	if p == nil {
		return ""
	}
	switch k {
	case FieldFullName:
		return p.FullName
	case FieldAddress:
		return FormatAddress(p.Address, p.City, p.State, p.ZipCode)
	case FieldBirthYear:
		if p.BirthYear == 0 {
			return ""
		}
		return strconv.Itoa(p.BirthYear)
	case FieldGender:
		return p.Gender
	case FieldPoliticalAffiliation:
		return p.PoliticalAffiliation
	case FieldEducation:
		return p.Education
	case FieldProfession:
		return p.Profession
	case FieldMilitaryService:
		return p.MilitaryService
	default:
		return ""
	}
}
