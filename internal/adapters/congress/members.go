package congress

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

type memberTerm struct {
	Chamber   string `json:"chamber"`
	StartYear int    `json:"startYear"`
	EndYear   int    `json:"endYear"`
}

type memberDetail struct {
	BioguideID      string `json:"bioguideId"`
	DirectOrderName string `json:"directOrderName"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	State           string `json:"state"`
	District        *int   `json:"district"`
	PartyHistory    []struct {
		PartyName string `json:"partyName"`
		StartYear int    `json:"startYear"`
	} `json:"partyHistory"`
	OfficialWebsiteURL string       `json:"officialWebsiteUrl"`
	Terms              []memberTerm `json:"terms"`
}

type memberListItem struct {
	BioguideID string `json:"bioguideId"`
	Name       string `json:"name"`
	State      string `json:"state"`
	District   *int   `json:"district"`
	PartyName  string `json:"partyName"`
	Terms      struct {
		Item []memberTerm `json:"item"`
	} `json:"terms"`
}

type memberResponse struct {
	Member memberDetail `json:"member"`
}

type memberListResponse struct {
	Members []memberListItem `json:"members"`
	Pagination struct {
		Count int    `json:"count"`
		Next  string `json:"next"`
	} `json:"pagination"`
}

func (c *Client) GetMember(ctx context.Context, bioguideID string) (*domain.Member, error) {
	var mr memberResponse
	if err := c.get(ctx, "/member/"+url.PathEscape(bioguideID), nil, &mr); err != nil {
		return nil, err
	}
	d := mr.Member
	if d.BioguideID == "" {
		return nil, fmt.Errorf("member %s: %w", bioguideID, domain.ErrNotFound)
	}

	m := &domain.Member{
		BioguideID: d.BioguideID,
		Name:       d.DirectOrderName,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		District:   d.District,
		WebsiteURL: d.OfficialWebsiteURL,
		Terms:      terms(d.Terms),
	}
	if code, ok := domain.StateCode(d.State); ok {
		m.State = code
	}
	// Party history is oldest first.
	if n := len(d.PartyHistory); n > 0 {
		m.Party = d.PartyHistory[n-1].PartyName
	}
	return m, nil
}

// MembersByState lists the current members for a state, senators first.
func (c *Client) MembersByState(ctx context.Context, state string) ([]*domain.Member, error) {
	code, ok := domain.StateCode(state)
	if !ok {
		return nil, fmt.Errorf("%w: unknown state %q", domain.ErrValidation, state)
	}

	var lr memberListResponse
	path := fmt.Sprintf("/member/congress/%d/%s", c.congress, code)
	q := url.Values{"currentMember": {"true"}, "limit": {"250"}}
	if err := c.get(ctx, path, q, &lr); err != nil {
		return nil, err
	}

	out := make([]*domain.Member, 0, len(lr.Members))
	for _, it := range lr.Members {
		out = append(out, fromListItem(it))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return domain.ChamberFor(*out[i]) == domain.ChamberSenate && domain.ChamberFor(*out[j]) != domain.ChamberSenate
	})
	return out, nil
}

// SearchMembers matches every query word against the current-member roster.
// The API has no name search, so the roster is fetched and cached.
func (c *Client) SearchMembers(ctx context.Context, query string, limit int) ([]*domain.Member, error) {
	roster, err := c.currentRoster(ctx)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	var out []*domain.Member
	for _, m := range roster {
		if matches(m, words) {
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func matches(m *domain.Member, words []string) bool {
	hay := strings.ToLower(m.Name + " " + m.FirstName + " " + m.LastName + " " + m.State + " " + domain.StateName(m.State))
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return len(words) > 0
}

func (c *Client) currentRoster(ctx context.Context) ([]*domain.Member, error) {
	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()

	if c.roster != nil && c.now().Sub(c.rosterAt) < c.rosterTTL {
		return c.roster, nil
	}

	var roster []*domain.Member
	for offset := 0; ; offset += 250 {
		var lr memberListResponse
		q := url.Values{
			"currentMember": {"true"},
			"limit":         {"250"},
			"offset":        {strconv.Itoa(offset)},
		}
		if err := c.get(ctx, "/member", q, &lr); err != nil {
			return nil, err
		}
		for _, it := range lr.Members {
			roster = append(roster, fromListItem(it))
		}
		if lr.Pagination.Next == "" || len(lr.Members) == 0 {
			break
		}
	}

	c.roster = roster
	c.rosterAt = c.now()
	return roster, nil
}

// fromListItem converts a roster entry. Names come as "Last, First M.".
func fromListItem(it memberListItem) *domain.Member {
	m := &domain.Member{
		BioguideID: it.BioguideID,
		District:   it.District,
		Party:      it.PartyName,
		Terms:      terms(it.Terms.Item),
	}
	if code, ok := domain.StateCode(it.State); ok {
		m.State = code
	}

	last, first, found := strings.Cut(it.Name, ",")
	if found {
		m.LastName = strings.TrimSpace(last)
		first = strings.TrimSpace(first)
		if given, _, ok := strings.Cut(first, " "); ok {
			m.FirstName = given
		} else {
			m.FirstName = first
		}
		m.Name = strings.TrimSpace(first + " " + m.LastName)
	} else {
		m.Name = strings.TrimSpace(it.Name)
	}
	return m
}

func terms(ts []memberTerm) []domain.Term {
	out := make([]domain.Term, 0, len(ts))
	for _, t := range ts {
		out = append(out, domain.Term{Chamber: t.Chamber, StartYear: t.StartYear, EndYear: t.EndYear})
	}
	return out
}
