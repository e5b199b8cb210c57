package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

// MockGenerator drafts a fixed template message for local mode and tests.
type MockGenerator struct {
	Err error
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	subject := req.BillTitle
	if subject == "" {
		subject = "this legislation"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "As your constituent, I urge you to %s %s.", stanceVerb(req.Stance), subject)
	if p := req.PersonalData[domain.FieldProfession]; p != "" {
		fmt.Fprintf(&b, " As a %s, I see its effects directly.", strings.ToLower(p))
	}
	b.WriteString(" Please consider the people in our community when you cast your vote. Thank you for your time.")
	return b.String(), nil
}
