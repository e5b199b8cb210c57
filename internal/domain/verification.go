package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// VerificationRecord is the identity captured by the verification step,
// either a chosen candidate match or a manual entry.
type VerificationRecord struct {
	FullName string `json:"full_name" firestore:"full_name"`
	Address  string `json:"address" firestore:"address"`
	City     string `json:"city" firestore:"city"`
	State    string `json:"state" firestore:"state"`
	ZipCode  string `json:"zip_code" firestore:"zip_code"`
	Note     string `json:"note,omitempty" firestore:"note"`
}

// Candidate is one fuzzy identity match offered for selection.
type Candidate struct {
	VerificationRecord
	Confidence float64 `json:"confidence"`
}

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Validate checks a manually entered record.
func (r VerificationRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(r.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(r.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(r.State) == "" {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !IsStateCode(r.State) {
		return fmt.Errorf("%w: unknown state %q", ErrValidation, r.State)
	}
	if !zipPattern.MatchString(strings.TrimSpace(r.ZipCode)) {
		return fmt.Errorf("%w: invalid zip code %q", ErrValidation, r.ZipCode)
	}
	return nil
}

// FormattedAddress is the one-line postal form of the record.
func (r VerificationRecord) FormattedAddress() string {
	return FormatAddress(r.Address, r.City, r.State, r.ZipCode)
}

// FormatAddress joins the non-empty parts as "street, city, ST 00000".
func FormatAddress(street, city, state, zip string) string {
	var parts []string
	if s := strings.TrimSpace(street); s != "" {
		parts = append(parts, s)
	}
	if c := strings.TrimSpace(city); c != "" {
		parts = append(parts, c)
	}
	tail := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}
