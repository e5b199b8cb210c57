// Package verification holds the identity Verifier used until a registry
// integration exists. It fabricates plausible candidates from the input.
package verification

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/PabloGalante/advocate/internal/domain"
)

var (
	zipInAddress   = regexp.MustCompile(`\b(\d{5})(-\d{4})?\b`)
	stateInAddress = regexp.MustCompile(`\b([A-Za-z]{2})\s+\d{5}`)
)

// title builds a new Caser per call; Casers are not safe for concurrent use.
func title(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}

// Mock answers with up to three fuzzy variants of the typed identity. An
// address without a zip code yields no candidates.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Match(ctx context.Context, firstName, lastName, address string) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The zip closes the address; earlier five-digit runs are house numbers.
	locs := zipInAddress.FindAllStringSubmatchIndex(address, -1)
	if len(locs) == 0 {
		return nil, nil
	}
	loc := locs[len(locs)-1]
	zip := address[loc[2]:loc[3]]

	state, ok := domain.StateForZip(zip)
	if sms := stateInAddress.FindAllStringSubmatch(address, -1); len(sms) > 0 {
		if sm := sms[len(sms)-1]; domain.IsStateCode(sm[1]) {
			state, ok = strings.ToUpper(sm[1]), true
		}
	}
	if !ok {
		return nil, nil
	}

	street, city := splitAddress(address[:loc[0]] + address[loc[1]:])
	first := title(strings.TrimSpace(firstName))
	last := title(strings.TrimSpace(lastName))
	if street == "" {
		street = "1 Main St"
	}
	if city == "" {
		city = domain.StateName(state)
	}

	base := domain.VerificationRecord{
		FullName: first + " " + last,
		Address:  street,
		City:     city,
		State:    state,
		ZipCode:  zip,
		Note:     "Matched on name and address",
	}

	out := []domain.Candidate{{VerificationRecord: base, Confidence: 0.92}}

	if initial := firstRune(first); initial != "" {
		alt := base
		alt.FullName = initial + ". " + last
		alt.Note = "Matched on last name and address"
		out = append(out, domain.Candidate{VerificationRecord: alt, Confidence: 0.71})
	}

	moved := base
	moved.Address = fmt.Sprintf("%s Apt %d", street, len(last)+1)
	moved.Note = "Matched on name and zip code"
	out = append(out, domain.Candidate{VerificationRecord: moved, Confidence: 0.55})

	return out, nil
}

// splitAddress pulls street and city out of "street, city, ST" once the
// zip has been cut.
func splitAddress(address string) (street, city string) {
	parts := strings.Split(address, ",")
	clean := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	// Drop a trailing bare state code.
	if n := len(clean); n > 0 && domain.IsStateCode(clean[n-1]) {
		clean = clean[:n-1]
	}

	if len(clean) > 0 {
		street = title(clean[0])
	}
	if len(clean) > 1 {
		city = title(clean[1])
	}
	return street, city
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
