package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBROI_Validation(t *testing.T) {
	p := DefaultParams()
	p.Ro = 0
	_, err := NewBROI(p)
	assert.Error(t, err)

	p = DefaultParams()
	p.VBar = -1
	_, err = NewSlivkinsBidder(p)
	assert.Error(t, err)
}

func TestDualAscent_BidFlooredAtBinTen(t *testing.T) {
	b, err := NewBROI(DefaultParams())
	require.NoError(t, err)

	// Zero click value keeps the raw bid at zero; the floor lifts it.
	got := b.PlaceBid(coldStartInput(), NewHistory())
	assert.Equal(t, dualAscentMinBid, got)
	assert.InDelta(t, BinToPrice(10), got, 1e-12)
}

func TestDualAscent_BudgetMultiplierBoxClipped(t *testing.T) {
	// A large observed price pushes the budget multiplier far past its
	// box; the clip pulls it back to 1/(2*ro).
	b, err := NewBROI(DefaultParams())
	require.NoError(t, err)

	h := NewHistory()
	h.Add(testCampaign(1000), 10, 100, 1, 10) // Spend 100 >> ro 4

	b.PlaceBid(coldStartInput(), h)
	assert.InDelta(t, 1/(2*DefaultParams().Ro), b.muBudget, 1e-12)
	assert.GreaterOrEqual(t, b.muROI, 0.0)
}

func TestDualAscent_IdleSteps_RelaxBudgetMultiplier(t *testing.T) {
	// Steps that spent nothing push the budget multiplier down, never
	// below zero.
	b, err := NewBROI(DefaultParams())
	require.NoError(t, err)

	h := NewHistory()
	c := testCampaign(1000)
	in := coldStartInput()
	prev := 1 / (2 * DefaultParams().Ro)
	for i := 0; i < 30; i++ {
		h.Add(c, 10, 0, 0, 0)
		b.PlaceBid(in, h)
		assert.LessOrEqual(t, b.muBudget, prev+1e-12, "step %d", i)
		assert.GreaterOrEqual(t, b.muBudget, 0.0, "step %d", i)
		prev = b.muBudget
	}
}
