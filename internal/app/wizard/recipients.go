package wizard

import "github.com/PabloGalante/advocate/internal/domain"

// RecipientSet is a set of recipients keyed by ID that remembers insertion
// order for review pagination.
type RecipientSet struct {
	order []domain.RecipientID
	byID  map[domain.RecipientID]domain.Recipient
}

func NewRecipientSet() *RecipientSet {
	return &RecipientSet{byID: make(map[domain.RecipientID]domain.Recipient)}
}

// Add inserts r and reports whether it was new. Re-adding an existing ID
// refreshes its details but keeps its position.
func (s *RecipientSet) Add(r domain.Recipient) bool {
	if _, ok := s.byID[r.ID]; ok {
		s.byID[r.ID] = r
		return false
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	return true
}

func (s *RecipientSet) Remove(id domain.RecipientID) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *RecipientSet) Has(id domain.RecipientID) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *RecipientSet) Len() int {
	return len(s.order)
}

// List returns a copy in insertion order.
func (s *RecipientSet) List() []domain.Recipient {
	out := make([]domain.Recipient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Page returns one page of recipients (page is 1-based) and the page count.
func (s *RecipientSet) Page(page, size int) ([]domain.Recipient, int) {
	if size <= 0 {
		size = 5
	}
	pages := (len(s.order) + size - 1) / size
	if page < 1 || page > pages {
		return []domain.Recipient{}, pages
	}
	start := (page - 1) * size
	end := min(start+size, len(s.order))

	out := make([]domain.Recipient, 0, end-start)
	for _, id := range s.order[start:end] {
		out = append(out, s.byID[id])
	}
	return out, pages
}
