package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulator_BadMode_Errors(t *testing.T) {
	_, err := NewSimulator(testCampaign(100), &fractionBidder{coef: 0.3}, NewStatsTable(), "second-price")
	assert.Error(t, err)
}

func TestRun_BudgetExhaustion_StopsAndClipsExactly(t *testing.T) {
	// Budget 1000, a single always-winning bin spending 300 an hour under
	// VCG: three full steps, then a fourth clipped to the remaining 100.
	c := testCampaign(1000)
	stats := singleBinStats(c.CampaignID, mondayMidnight, 24, 300, 1, 2)
	s, err := NewSimulator(c, &fractionBidder{coef: 0.3}, stats, AuctionVCG)
	require.NoError(t, err)

	history, err := s.Run()
	require.NoError(t, err)

	require.Equal(t, 4, history.Len())
	assert.InDelta(t, 0, c.Balance, 1e-9)
	assert.GreaterOrEqual(t, c.Balance, -1e-9)

	// Pre-clip spend is recorded raw; the campaign accumulators are clipped.
	assert.Equal(t, 300.0, history.Last().Spend)
	// Clicks of the clipped step scale by the same factor as the spend.
	assert.InDelta(t, 3.0+100.0/300.0, c.Clicks, 1e-9)
}

func TestRun_BalanceMonotoneNonIncreasing(t *testing.T) {
	c := testCampaign(1000)
	stats := singleBinStats(c.CampaignID, mondayMidnight, 24, 10, 1, 2)
	s, err := NewSimulator(c, &fractionBidder{coef: 0.1}, stats, AuctionVCG)
	require.NoError(t, err)

	history, err := s.Run()
	require.NoError(t, err)

	prev := c.InitialBalance
	for i, row := range history.Rows() {
		if row.Balance > prev {
			t.Fatalf("balance increased at step %d: %v > %v", i, row.Balance, prev)
		}
		prev = row.Balance
	}
}

func TestRun_TerminatesAtCampaignEnd(t *testing.T) {
	// A budget the per-hour spend never exhausts: the run covers exactly
	// the campaign duration in hours.
	c := testCampaign(1e6)
	stats := singleBinStats(c.CampaignID, mondayMidnight, 24, 10, 1, 2)
	s, err := NewSimulator(c, &fractionBidder{coef: 1e-4}, stats, AuctionVCG)
	require.NoError(t, err)

	history, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 24, history.Len())
	assert.Equal(t, c.CampaignEnd, c.CurrTime)
}

func TestRun_NoStats_BidsEveryHourSettlesNothing(t *testing.T) {
	c := testCampaign(100)
	s, err := NewSimulator(c, &fractionBidder{coef: 0.3}, NewStatsTable(), AuctionFPA)
	require.NoError(t, err)

	history, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 24, history.Len())
	assert.Equal(t, 100.0, c.Balance)
	assert.Zero(t, c.Clicks)
}

func TestRun_WinningStepsAdvanceT(t *testing.T) {
	c := testCampaign(1e6)
	stats := singleBinStats(c.CampaignID, mondayMidnight, 24, 10, 1, 2)
	rec := &recordingBidder{bid: 300}
	s, err := NewSimulator(c, rec, stats, AuctionVCG)
	require.NoError(t, err)

	_, err = s.Run()
	require.NoError(t, err)

	// Every settled hour wins a full click, so the winning counter the
	// bidder observes trails the step index by one.
	require.Len(t, rec.seenT, 24)
	for i, seen := range rec.seenT {
		assert.Equal(t, i, seen, "step %d", i)
	}
	assert.Equal(t, 24, c.T)
	assert.True(t, c.Winning)
}

func TestRun_RateEstimatesRefreshAfterFirstStep(t *testing.T) {
	c := testCampaign(1e6)
	stats := singleBinStats(c.CampaignID, mondayMidnight, 24, 10, 1, 2)
	inst := NewCampaignInstance(c, &fractionBidder{coef: 1e-4})

	require.NoError(t, inst.step(stats, AuctionVCG, 0, nil))
	input := inst.bidderInput(c.T, inst.cvrList)
	assert.Equal(t, 0.01, input.PrevCTR)
	assert.Equal(t, 0.005, input.PrevCVR)
	require.NotNil(t, input.Curves)
	assert.Equal(t, []float64{0.01}, input.Curves.CTR)
	assert.Equal(t, []float64{0.005}, input.CVRList)
}
