package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Chamber string

const (
	ChamberSenate  Chamber = "senate"
	ChamberHouse   Chamber = "house"
	ChamberUnknown Chamber = "unknown"
)

// PlaceholderEmail is used when an address cannot be synthesized for a member.
const PlaceholderEmail = "correspondence@congress.gov"

// Term is one congressional term from the member directory.
type Term struct {
	Chamber   string `json:"chamber"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year,omitempty"`
}

// Member is a congressional member record as returned by the member directory.
type Member struct {
	BioguideID  string
	Name        string
	FirstName   string
	LastName    string
	State       string
	District    *int
	Party       string
	OfficeTitle string
	WebsiteURL  string
	Terms       []Term
}

// Recipient is a member or staff contact a message is addressed to.
type Recipient struct {
	ID       RecipientID `json:"id"`
	Name     string      `json:"name"`
	Party    string      `json:"party"`
	Chamber  Chamber     `json:"chamber"`
	Role     string      `json:"role"`
	State    string      `json:"state,omitempty"`
	District *int        `json:"district,omitempty"`
	Email    string      `json:"email"`
}

// ChamberFor guesses the chamber of a member. Term data wins over the office
// title, which wins over the website host. None of it is authoritative.
func ChamberFor(m Member) Chamber {
	if len(m.Terms) > 0 {
		latest := m.Terms[0]
		for _, t := range m.Terms[1:] {
			if t.StartYear > latest.StartYear {
				latest = t
			}
		}
		c := strings.ToLower(latest.Chamber)
		switch {
		case strings.Contains(c, "senate"):
			return ChamberSenate
		case strings.Contains(c, "house"):
			return ChamberHouse
		}
	}

	title := strings.ToLower(m.OfficeTitle)
	switch {
	case strings.Contains(title, "senator"):
		return ChamberSenate
	case strings.Contains(title, "representative"), strings.Contains(title, "delegate"),
		strings.Contains(title, "commissioner"):
		return ChamberHouse
	}

	url := strings.ToLower(m.WebsiteURL)
	switch {
	case strings.Contains(url, ".senate.gov"):
		return ChamberSenate
	case strings.Contains(url, ".house.gov"):
		return ChamberHouse
	}

	if m.District != nil {
		return ChamberHouse
	}
	return ChamberUnknown
}

// RoleFor is the display role of a chamber.
func RoleFor(c Chamber) string {
	switch c {
	case ChamberSenate:
		return "Senator"
	case ChamberHouse:
		return "Representative"
	default:
		return "Member of Congress"
	}
}

// PartyCode shortens a party name to its usual one-letter code.
func PartyCode(party string) string {
	p := strings.ToLower(strings.TrimSpace(party))
	switch {
	case strings.HasPrefix(p, "democrat"):
		return "D"
	case strings.HasPrefix(p, "republican"):
		return "R"
	case strings.HasPrefix(p, "independent"):
		return "I"
	case p == "":
		return ""
	default:
		return strings.ToUpper(p[:1])
	}
}

var errNoEmail = errors.New("cannot synthesize member email")

// SynthesizeEmail builds the conventional office address for a member.
// The result looks real but is not checked against any directory.
func SynthesizeEmail(m Member, c Chamber) (string, error) {
	first := emailPart(m.FirstName)
	last := emailPart(m.LastName)
	if first == "" || last == "" {
		return "", fmt.Errorf("%w: missing name for %q", errNoEmail, m.BioguideID)
	}

	switch c {
	case ChamberSenate:
		return first + "." + last + "@senate.gov", nil
	case ChamberHouse:
		return first + "." + last + "@mail.house.gov", nil
	default:
		return "", fmt.Errorf("%w: unknown chamber for %q", errNoEmail, m.BioguideID)
	}
}

func emailPart(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RecipientFromMember applies the chamber, party and email heuristics.
// A failed email synthesis degrades to PlaceholderEmail.
func RecipientFromMember(m Member) Recipient {
	chamber := ChamberFor(m)

	email, err := SynthesizeEmail(m, chamber)
	if err != nil {
		email = PlaceholderEmail
	}

	name := m.Name
	if name == "" {
		name = strings.TrimSpace(m.FirstName + " " + m.LastName)
	}

	return Recipient{
		ID:       RecipientID(m.BioguideID),
		Name:     name,
		Party:    PartyCode(m.Party),
		Chamber:  chamber,
		Role:     RoleFor(chamber),
		State:    m.State,
		District: m.District,
		Email:    email,
	}
}
