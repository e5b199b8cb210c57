package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/advocate/internal/domain"
)

func twoCandidates() []domain.Candidate {
	return []domain.Candidate{
		{VerificationRecord: domain.VerificationRecord{FullName: "Pat Doe", Address: "1 Main St", City: "Albany", State: "NY", ZipCode: "12207"}},
		{VerificationRecord: domain.VerificationRecord{FullName: "Patricia Doe", Address: "1 Main Street", City: "Albany", State: "NY", ZipCode: "12207"}},
	}
}

func TestVerificationSelection(t *testing.T) {
	c := newController(t, Variant{Flow: domain.FlowBillOrCampaign})
	v := c.Verification()

	assert.ErrorIs(t, v.Submit(IdentityQuery{FirstName: "Pat"}), domain.ErrValidation)
	require.NoError(t, v.Submit(IdentityQuery{FirstName: "Pat", LastName: "Doe", Address: "1 Main St"}))
	require.NoError(t, v.Offer(twoCandidates()))
	assert.Equal(t, VerificationSelection, v.State())
	assert.Len(t, v.Candidates(), 2)

	assert.ErrorIs(t, v.Select(5), domain.ErrValidation)
	require.NoError(t, v.Select(1))
	assert.Equal(t, "Patricia Doe", c.Record().FullName)
	assert.Equal(t, StepPosition, c.Step())
}

func TestVerificationTryAgain(t *testing.T) {
	c := newController(t, Variant{Flow: domain.FlowBillOrCampaign})
	v := c.Verification()

	require.NoError(t, v.Submit(IdentityQuery{FirstName: "Pat", LastName: "Doe", Address: "1 Main St"}))
	require.NoError(t, v.Offer(twoCandidates()))
	require.NoError(t, v.TryAgain())
	assert.Equal(t, VerificationInitial, v.State())
	assert.Empty(t, v.Candidates())
	assert.Equal(t, StepVerify, c.Step())
}

func TestVerificationManualKeepsDataOnBack(t *testing.T) {
	c := newController(t, Variant{Flow: domain.FlowMemberContact})
	v := c.Verification()

	require.NoError(t, v.Submit(IdentityQuery{FirstName: "Pat", LastName: "Doe", Address: "1 Main St"}))
	require.NoError(t, v.Offer(twoCandidates()))
	require.NoError(t, v.NotMe())
	assert.Equal(t, VerificationManual, v.State())

	bad := domain.VerificationRecord{FullName: "Pat Doe", Address: "9 Elm St", City: "Troy", State: "ny", ZipCode: "nope"}
	assert.ErrorIs(t, v.SubmitManual(bad), domain.ErrValidation)
	assert.Equal(t, VerificationManual, v.State())

	require.NoError(t, v.ManualBack())
	assert.Equal(t, VerificationSelection, v.State())
	assert.Equal(t, "9 Elm St", v.Manual().Address)

	require.NoError(t, v.NotMe())
	good := v.Manual()
	good.ZipCode = "12180"
	require.NoError(t, v.SubmitManual(good))

	assert.Equal(t, VerificationDone, v.State())
	assert.Equal(t, StepPosition, c.Step())
	assert.Equal(t, "NY", c.Record().State)
	assert.Equal(t, "Entered manually", c.Record().Note)
}

func TestVerificationNoCandidatesGoesManual(t *testing.T) {
	c := newController(t, Variant{Flow: domain.FlowBillOrCampaign})
	v := c.Verification()

	require.NoError(t, v.Submit(IdentityQuery{FirstName: "Pat", LastName: "Doe", Address: "1 Main St"}))
	require.NoError(t, v.Offer(nil))
	assert.Equal(t, VerificationManual, v.State())
	assert.Equal(t, "Pat Doe", v.Manual().FullName)

	require.NoError(t, v.ManualBack())
	assert.Equal(t, VerificationInitial, v.State())
}

func TestVerificationRejectsOutOfOrderActions(t *testing.T) {
	c := newController(t, Variant{Flow: domain.FlowBillOrCampaign})
	v := c.Verification()

	assert.ErrorIs(t, v.Select(0), ErrVerificationState)
	assert.ErrorIs(t, v.NotMe(), ErrVerificationState)
	assert.ErrorIs(t, v.TryAgain(), ErrVerificationState)
	assert.ErrorIs(t, v.ManualBack(), ErrVerificationState)
	assert.ErrorIs(t, v.SubmitManual(domain.VerificationRecord{}), ErrVerificationState)
	assert.ErrorIs(t, v.Offer(nil), ErrVerificationState)
}
