package wizard

import (
	"fmt"

	"github.com/PabloGalante/advocate/internal/domain"
)

// DisclosurePolicy parameterizes the disclosure screen.
// DefaultOn makes every available field start selected (opt-out);
// RequireFullName pins the full name on for signature formatting.
type DisclosurePolicy struct {
	DefaultOn       bool
	RequireFullName bool
}

// AnonymousName signs messages from senders without a verified name.
const AnonymousName = "A constituent"

// FieldStatus describes one catalog entry on the disclosure screen.
type FieldStatus struct {
	Key             domain.FieldKey `json:"key"`
	Label           string          `json:"label"`
	Value           string          `json:"value,omitempty"`
	Available       bool            `json:"available"`
	Selected        bool            `json:"selected"`
	Forced          bool            `json:"forced,omitempty"`
	RequiresAccount bool            `json:"requires_account,omitempty"`
}

// Disclosure is the toggle set over domain.FieldCatalog. Fields the user has
// never touched follow the policy default.
type Disclosure struct {
	policy  DisclosurePolicy
	touched map[domain.FieldKey]bool
	chosen  map[domain.FieldKey]bool
	value   func(domain.FieldKey) string
}

func newDisclosure(policy DisclosurePolicy, value func(domain.FieldKey) string) *Disclosure {
	return &Disclosure{
		policy:  policy,
		touched: make(map[domain.FieldKey]bool),
		chosen:  make(map[domain.FieldKey]bool),
		value:   value,
	}
}

func (d *Disclosure) forced(k domain.FieldKey) bool {
	return d.policy.RequireFullName && k == domain.FieldFullName
}

func (d *Disclosure) selected(k domain.FieldKey) bool {
	if d.value(k) == "" {
		return false
	}
	if d.forced(k) {
		return true
	}
	if d.touched[k] {
		return d.chosen[k]
	}
	return d.policy.DefaultOn
}

// Toggle flips one field. Unavailable and forced fields cannot be toggled.
func (d *Disclosure) Toggle(k domain.FieldKey) error {
	if _, ok := domain.ParseFieldKey(string(k)); !ok {
		return fmt.Errorf("%w: unknown field %q", domain.ErrValidation, k)
	}
	if d.value(k) == "" {
		return fmt.Errorf("%w: %s is not available without an account", domain.ErrValidation, k.Label())
	}
	if d.forced(k) {
		return fmt.Errorf("%w: %s is always included", domain.ErrValidation, k.Label())
	}

	next := !d.selected(k)
	d.touched[k] = true
	d.chosen[k] = next
	return nil
}

// Fields reports the state of the whole catalog in catalog order.
func (d *Disclosure) Fields() []FieldStatus {
	out := make([]FieldStatus, 0, len(domain.FieldCatalog))
	for _, k := range domain.FieldCatalog {
		v := d.value(k)
		out = append(out, FieldStatus{
			Key:             k,
			Label:           k.Label(),
			Value:           v,
			Available:       v != "",
			Selected:        d.selected(k),
			Forced:          d.forced(k) && v != "",
			RequiresAccount: v == "",
		})
	}
	return out
}

// Resolve returns the values of the selected fields.
func (d *Disclosure) Resolve() map[domain.FieldKey]string {
	out := make(map[domain.FieldKey]string)
	for _, k := range domain.FieldCatalog {
		if d.selected(k) {
			out[k] = d.value(k)
		}
	}
	return out
}
