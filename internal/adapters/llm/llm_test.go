package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/advocate/internal/domain"
)

func TestBuildPromptIncludesBillAndPersonalData(t *testing.T) {
	p := BuildPrompt(domain.GenerationRequest{
		BillTitle:   "Secure the Border Act",
		BillSummary: "Changes asylum rules.",
		Stance:      domain.StanceOppose,
		Tone:        "Urgent",
		PersonalData: map[domain.FieldKey]string{
			domain.FieldFullName:   "Jane Doe",
			domain.FieldProfession: "Nurse",
		},
	})

	assert.Contains(t, p.User, "Position: oppose")
	assert.Contains(t, p.User, "Bill: Secure the Border Act")
	assert.Contains(t, p.User, "Summary: Changes asylum rules.")
	assert.Contains(t, p.User, "Tone: urgent.")
	assert.Contains(t, p.User, "- Profession: Nurse")
	assert.NotContains(t, p.User, "Jane Doe")
	assert.NotEmpty(t, p.System)
}

func TestBuildPromptFallsBackToDefaultTone(t *testing.T) {
	p := BuildPrompt(domain.GenerationRequest{
		Stance:      domain.StanceSupport,
		Tone:        "sarcastic",
		BillSummary: domain.NoSummaryText,
	})
	assert.Contains(t, p.User, "Tone: respectful.")
	assert.NotContains(t, p.User, "Summary:")
	assert.NotContains(t, p.User, "About the writer")
}

func TestMockGenerator(t *testing.T) {
	m := NewMockGenerator()
	body, err := m.Generate(context.Background(), domain.GenerationRequest{
		BillTitle: "H.R. 8",
		Stance:    domain.StanceOppose,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "urge you to oppose H.R. 8")

	m.Err = errors.New("boom")
	_, err = m.Generate(context.Background(), domain.GenerationRequest{})
	require.Error(t, err)
}

type countingGenerator struct{ calls atomic.Int32 }

func (c *countingGenerator) Generate(context.Context, domain.GenerationRequest) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestRateLimitedWaitsForToken(t *testing.T) {
	next := &countingGenerator{}
	rl := NewRateLimited(next, 0.001, 1)

	_, err := rl.Generate(context.Background(), domain.GenerationRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rl.Generate(ctx, domain.GenerationRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestRateLimitedUnlimited(t *testing.T) {
	next := &countingGenerator{}
	rl := NewRateLimited(next, 0, 0)
	for i := 0; i < 5; i++ {
		_, err := rl.Generate(context.Background(), domain.GenerationRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), next.calls.Load())
}
