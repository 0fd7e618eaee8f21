package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMPIDBidder_Validation(t *testing.T) {
	tr := uniformTraffic()

	p := DefaultParams()
	p.Budget = 0
	_, err := NewMPIDBidder(tr, p)
	assert.Error(t, err)

	p = DefaultParams()
	p.Horizon = -1
	_, err = NewMPIDBidder(tr, p)
	assert.Error(t, err)

	p = DefaultParams()
	p.AuctionMode = "english"
	_, err = NewMPIDBidder(tr, p)
	assert.Error(t, err)
}

func TestMPID_ColdStart(t *testing.T) {
	b, err := NewMPIDBidder(uniformTraffic(), DefaultParams())
	require.NoError(t, err)
	// Default budget 1000: constraint 40, cold bid 40 * 0.37.
	got := b.PlaceBid(coldStartInput(), NewHistory())
	assert.InDelta(t, 14.8, got, 1e-9)
}

func TestMPID_ChillyStart_NoCurves_FlooredAtMinBid(t *testing.T) {
	// No rate curves observed yet: the LP fails, the duals floor at 0.1
	// each, and with zero rate estimates the bid formula collapses to zero,
	// lifted to the minimum bid floor(constraint/5) = 8.
	b, err := NewMPIDBidder(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	in := coldStartInput()
	in.Balance = 985.2
	got := b.PlaceBid(in, oneStepHistory())
	assert.InDelta(t, 8, got, 1e-9)
}

func TestMPID_BidBandTracksPreviousBids(t *testing.T) {
	// Every bid is clipped to [0.5, 2] times the running mean of its
	// predecessors, so consecutive bids cannot jump more than 2x.
	b, err := NewMPIDBidder(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	h := NewHistory()
	c := testCampaign(1000)
	in := coldStartInput()

	prevMean := 14.8 // cold bid seeds the band
	bids := []float64{b.PlaceBid(in, h)}
	for i := 0; i < 5; i++ {
		h.Add(c, bids[len(bids)-1], 10, 1, 10)
		in.PrevBalance = in.Balance
		in.Balance -= 10
		in.Clicks++
		in.CurrTime += HourSeconds
		bid := b.PlaceBid(in, h)
		assert.GreaterOrEqual(t, bid, 0.5*prevMean-1e-9, "step %d", i)
		assert.LessOrEqual(t, bid, 2*prevMean+1e-9, "step %d", i)
		bids = append(bids, bid)
		prevMean = mean(bids)
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func TestMPID_BudgetPace(t *testing.T) {
	b, err := NewMPIDBidder(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	// 24 uniform hours left: the ideal next-hour spend is 1/24 of the
	// remaining balance.
	in := coldStartInput()
	pace := b.budgetPace(in)
	assert.InDelta(t, 1000.0/24, pace, 1e-6)

	// No traffic left means no pace target.
	in.CurrTime = in.CampaignEnd
	assert.Zero(t, b.budgetPace(in))
}
