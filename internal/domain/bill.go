package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BillRef identifies a bill by congress, type code and number, e.g. 118/hr/8.
type BillRef struct {
	Congress int    `json:"congress" firestore:"congress"`
	Type     string `json:"type" firestore:"type"`
	Number   string `json:"number" firestore:"number"`
}

var billTypeLabels = map[string]string{
	"hr":      "H.R.",
	"s":       "S.",
	"hjres":   "H.J.Res.",
	"sjres":   "S.J.Res.",
	"hconres": "H.Con.Res.",
	"sconres": "S.Con.Res.",
	"hres":    "H.Res.",
	"sres":    "S.Res.",
}

// NewBillRef normalizes and validates the three bill parameters.
func NewBillRef(congress int, billType, number string) (BillRef, error) {
	t := strings.ToLower(strings.TrimSpace(billType))
	n := strings.TrimSpace(number)

	if congress <= 0 {
		return BillRef{}, fmt.Errorf("%w: congress must be positive", ErrValidation)
	}
	if _, ok := billTypeLabels[t]; !ok {
		return BillRef{}, fmt.Errorf("%w: unknown bill type %q", ErrValidation, billType)
	}
	if _, err := strconv.Atoi(n); err != nil || n == "" {
		return BillRef{}, fmt.Errorf("%w: bill number %q is not numeric", ErrValidation, number)
	}

	return BillRef{Congress: congress, Type: t, Number: n}, nil
}

func (r BillRef) IsZero() bool {
	return r.Congress == 0 && r.Type == "" && r.Number == ""
}

// String renders the citation form, e.g. "H.R. 8".
func (r BillRef) String() string {
	label, ok := billTypeLabels[r.Type]
	if !ok {
		label = strings.ToUpper(r.Type)
	}
	return label + " " + r.Number
}

type Sponsor struct {
	BioguideID string `json:"bioguide_id"`
	Name       string `json:"name"`
	Party      string `json:"party"`
	State      string `json:"state"`
}

type LatestAction struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Bill is the bill record shown on the wizard and fed to message generation.
type Bill struct {
	Ref          BillRef      `json:"ref"`
	Title        string       `json:"title"`
	Summary      string       `json:"summary"`
	Sponsors     []Sponsor    `json:"sponsors"`
	Committees   []string     `json:"committees"`
	LatestAction LatestAction `json:"latest_action"`
}

// Placeholders used when optional bill data is missing.
const (
	NoSummaryText    = "No summary is available for this bill yet."
	NoCommitteesText = "Committee information unavailable"
)
