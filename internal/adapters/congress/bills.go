package congress

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

type billResponse struct {
	Bill struct {
		Title    string `json:"title"`
		Sponsors []struct {
			BioguideID string `json:"bioguideId"`
			FullName   string `json:"fullName"`
			Party      string `json:"party"`
			State      string `json:"state"`
		} `json:"sponsors"`
		LatestAction struct {
			ActionDate string `json:"actionDate"`
			Text       string `json:"text"`
		} `json:"latestAction"`
	} `json:"bill"`
}

type summariesResponse struct {
	Summaries []struct {
		Text       string `json:"text"`
		UpdateDate string `json:"updateDate"`
	} `json:"summaries"`
}

type committeesResponse struct {
	Committees []struct {
		Name string `json:"name"`
	} `json:"committees"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// GetBill fetches the bill and enriches it with its latest summary and its
// committees. Missing summary or committee data falls back to placeholders.
func (c *Client) GetBill(ctx context.Context, ref domain.BillRef) (*domain.Bill, error) {
	base := fmt.Sprintf("/bill/%d/%s/%s", ref.Congress, url.PathEscape(ref.Type), url.PathEscape(ref.Number))

	var br billResponse
	if err := c.get(ctx, base, nil, &br); err != nil {
		return nil, err
	}

	bill := &domain.Bill{
		Ref:   ref,
		Title: br.Bill.Title,
		LatestAction: domain.LatestAction{
			Date: br.Bill.LatestAction.ActionDate,
			Text: br.Bill.LatestAction.Text,
		},
		Summary:    domain.NoSummaryText,
		Committees: []string{domain.NoCommitteesText},
	}
	for _, s := range br.Bill.Sponsors {
		bill.Sponsors = append(bill.Sponsors, domain.Sponsor{
			BioguideID: s.BioguideID,
			Name:       s.FullName,
			Party:      s.Party,
			State:      s.State,
		})
	}

	var sr summariesResponse
	if err := c.get(ctx, base+"/summaries", nil, &sr); err == nil && len(sr.Summaries) > 0 {
		sort.SliceStable(sr.Summaries, func(i, j int) bool {
			return sr.Summaries[i].UpdateDate > sr.Summaries[j].UpdateDate
		})
		if text := cleanSummary(sr.Summaries[0].Text); text != "" {
			bill.Summary = text
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cr committeesResponse
	if err := c.get(ctx, base+"/committees", nil, &cr); err == nil && len(cr.Committees) > 0 {
		names := make([]string, 0, len(cr.Committees))
		for _, cm := range cr.Committees {
			if cm.Name != "" {
				names = append(names, cm.Name)
			}
		}
		if len(names) > 0 {
			bill.Committees = names
		}
	}

	return bill, nil
}

// cleanSummary strips the HTML markup the API wraps summaries in.
func cleanSummary(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
