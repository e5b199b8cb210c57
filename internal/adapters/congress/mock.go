package congress

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Mock is an in-process directory with a handful of bills and members, for
// local mode and tests.
type Mock struct {
	Bills   map[domain.BillRef]*domain.Bill
	Members []*domain.Member
}

func intp(i int) *int { return &i }

func NewMock() *Mock {
	m := &Mock{
		Bills: map[domain.BillRef]*domain.Bill{},
		Members: []*domain.Member{
			{BioguideID: "P000145", Name: "Alex Padilla", FirstName: "Alex", LastName: "Padilla", State: "CA", Party: "Democratic", Terms: []domain.Term{{Chamber: "Senate", StartYear: 2021}}},
			{BioguideID: "S001150", Name: "Adam Schiff", FirstName: "Adam", LastName: "Schiff", State: "CA", Party: "Democratic", Terms: []domain.Term{{Chamber: "House of Representatives", StartYear: 2001}, {Chamber: "Senate", StartYear: 2024}}},
			{BioguideID: "P000197", Name: "Nancy Pelosi", FirstName: "Nancy", LastName: "Pelosi", State: "CA", District: intp(11), Party: "Democratic", Terms: []domain.Term{{Chamber: "House of Representatives", StartYear: 1987}}},
			{BioguideID: "C001098", Name: "Ted Cruz", FirstName: "Ted", LastName: "Cruz", State: "TX", Party: "Republican", Terms: []domain.Term{{Chamber: "Senate", StartYear: 2013}}},
			{BioguideID: "C001056", Name: "John Cornyn", FirstName: "John", LastName: "Cornyn", State: "TX", Party: "Republican", Terms: []domain.Term{{Chamber: "Senate", StartYear: 2002}}},
			{BioguideID: "S000148", Name: "Charles E. Schumer", FirstName: "Charles", LastName: "Schumer", State: "NY", Party: "Democratic", Terms: []domain.Term{{Chamber: "Senate", StartYear: 1999}}},
			{BioguideID: "O000172", Name: "Alexandria Ocasio-Cortez", FirstName: "Alexandria", LastName: "Ocasio-Cortez", State: "NY", District: intp(14), Party: "Democratic", Terms: []domain.Term{{Chamber: "House of Representatives", StartYear: 2019}}},
		},
	}

	hr8 := domain.BillRef{Congress: 118, Type: "hr", Number: "8"}
	m.Bills[hr8] = &domain.Bill{
		Ref:          hr8,
		Title:        "Bipartisan Background Checks Act of 2023",
		Summary:      "This bill establishes new background check requirements for firearm transfers between private parties.",
		Sponsors:     []domain.Sponsor{{BioguideID: "T000460", Name: "Rep. Thompson, Mike [D-CA-4]", Party: "D", State: "CA"}},
		Committees:   []string{"Judiciary Committee"},
		LatestAction: domain.LatestAction{Date: "2023-01-09", Text: "Referred to the House Committee on the Judiciary."},
	}
	s1 := domain.BillRef{Congress: 119, Type: "s", Number: "1"}
	m.Bills[s1] = &domain.Bill{
		Ref:          s1,
		Title:        "An act for the relief of the taxpayers.",
		Summary:      domain.NoSummaryText,
		Committees:   []string{domain.NoCommitteesText},
		LatestAction: domain.LatestAction{Date: "2025-01-03", Text: "Introduced in Senate."},
	}
	return m
}

func (m *Mock) GetBill(ctx context.Context, ref domain.BillRef) (*domain.Bill, error) {
	if b, ok := m.Bills[ref]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("bill %s: %w", ref, domain.ErrNotFound)
}

func (m *Mock) GetMember(ctx context.Context, bioguideID string) (*domain.Member, error) {
	for _, mem := range m.Members {
		if strings.EqualFold(mem.BioguideID, bioguideID) {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", bioguideID, domain.ErrNotFound)
}

func (m *Mock) SearchMembers(ctx context.Context, query string, limit int) ([]*domain.Member, error) {
	words := strings.Fields(strings.ToLower(query))
	var out []*domain.Member
	for _, mem := range m.Members {
		if matches(mem, words) {
			out = append(out, mem)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Mock) MembersByState(ctx context.Context, state string) ([]*domain.Member, error) {
	code, ok := domain.StateCode(state)
	if !ok {
		return nil, fmt.Errorf("%w: unknown state %q", domain.ErrValidation, state)
	}
	var out []*domain.Member
	for _, mem := range m.Members {
		if mem.State == code {
			out = append(out, mem)
		}
	}
	return out, nil
}
