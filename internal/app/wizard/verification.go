package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

// VerificationState is the sub-state of the Verify screen.
type VerificationState string

const (
	VerificationInitial   VerificationState = "initial"
	VerificationSelection VerificationState = "selection"
	VerificationManual    VerificationState = "manual"
	VerificationDone      VerificationState = "done"
)

var ErrVerificationState = errors.New("verification action not allowed in current state")

// IdentityQuery is what the user typed on the initial verification form.
type IdentityQuery struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

func (q IdentityQuery) validate() error {
	if strings.TrimSpace(q.FirstName) == "" || strings.TrimSpace(q.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", domain.ErrValidation)
	}
	if strings.TrimSpace(q.Address) == "" {
		return fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	return nil
}

// Verification runs Initial -> Selection -> Manual. Completing it hands the
// record to the controller, which advances to Position.
type Verification struct {
	state      VerificationState
	query      IdentityQuery
	candidates []domain.Candidate
	manual     domain.VerificationRecord
	complete   func(domain.VerificationRecord) error
}

func newVerification(complete func(domain.VerificationRecord) error) *Verification {
	return &Verification{state: VerificationInitial, complete: complete}
}

func (v *Verification) State() VerificationState { return v.state }

func (v *Verification) Query() IdentityQuery { return v.query }

func (v *Verification) Candidates() []domain.Candidate {
	return append([]domain.Candidate(nil), v.candidates...)
}

// Manual is the partially or fully entered manual record.
func (v *Verification) Manual() domain.VerificationRecord { return v.manual }

// Submit records the initial form. The caller runs the Verifier with the
// returned query and passes the result to Offer.
func (v *Verification) Submit(q IdentityQuery) error {
	if v.state != VerificationInitial {
		return fmt.Errorf("%w: submit from %s", ErrVerificationState, v.state)
	}
	if err := q.validate(); err != nil {
		return err
	}
	v.query = q
	return nil
}

// Offer moves to Selection, or straight to Manual when nothing matched.
func (v *Verification) Offer(candidates []domain.Candidate) error {
	if v.state != VerificationInitial || v.query.LastName == "" {
		return fmt.Errorf("%w: offer from %s", ErrVerificationState, v.state)
	}
	v.candidates = append([]domain.Candidate(nil), candidates...)
	if len(v.candidates) == 0 {
		v.state = VerificationManual
		v.manual.FullName = strings.TrimSpace(v.query.FirstName + " " + v.query.LastName)
		v.manual.Address = v.query.Address
		return nil
	}
	v.state = VerificationSelection
	return nil
}

// Select picks candidate i and completes the sub-flow.
func (v *Verification) Select(i int) error {
	if v.state != VerificationSelection {
		return fmt.Errorf("%w: select from %s", ErrVerificationState, v.state)
	}
	if i < 0 || i >= len(v.candidates) {
		return fmt.Errorf("%w: no candidate %d", domain.ErrValidation, i)
	}
	return v.finish(v.candidates[i].VerificationRecord)
}

// NotMe rejects every candidate and opens manual entry.
func (v *Verification) NotMe() error {
	if v.state != VerificationSelection {
		return fmt.Errorf("%w: not-me from %s", ErrVerificationState, v.state)
	}
	v.state = VerificationManual
	if v.manual.FullName == "" {
		v.manual.FullName = strings.TrimSpace(v.query.FirstName + " " + v.query.LastName)
	}
	return nil
}

// TryAgain returns to the initial form.
func (v *Verification) TryAgain() error {
	if v.state != VerificationSelection {
		return fmt.Errorf("%w: try-again from %s", ErrVerificationState, v.state)
	}
	v.state = VerificationInitial
	v.candidates = nil
	v.query = IdentityQuery{}
	return nil
}

// ManualBack leaves manual entry without clearing what was typed.
func (v *Verification) ManualBack() error {
	if v.state != VerificationManual {
		return fmt.Errorf("%w: manual-back from %s", ErrVerificationState, v.state)
	}
	if len(v.candidates) == 0 {
		v.state = VerificationInitial
		return nil
	}
	v.state = VerificationSelection
	return nil
}

// SubmitManual validates and completes with a manually entered record.
func (v *Verification) SubmitManual(r domain.VerificationRecord) error {
	if v.state != VerificationManual {
		return fmt.Errorf("%w: manual submit from %s", ErrVerificationState, v.state)
	}
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	v.manual = r
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Note == "" {
		r.Note = "Entered manually"
	}
	return v.finish(r)
}

func (v *Verification) finish(r domain.VerificationRecord) error {
	if err := v.complete(r); err != nil {
		return err
	}
	v.state = VerificationDone
	return nil
}
