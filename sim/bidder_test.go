package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coldStartInput() BidderInput {
	return BidderInput{
		CampaignID:     1,
		RegionID:       1,
		InitialBalance: 1000,
		Balance:        1000,
		PrevBalance:    1000,
		CampaignStart:  mondayMidnight,
		CampaignEnd:    mondayMidnight + 24*HourSeconds,
		CurrTime:       mondayMidnight,
		PrevTime:       mondayMidnight,
	}
}

func TestNewBidder_UnknownName_Errors(t *testing.T) {
	_, err := NewBidder("gradient-descent", uniformTraffic(), DefaultParams())
	assert.Error(t, err)
}

func TestValidBidders_SortedComplete(t *testing.T) {
	names := ValidBidders()
	assert.Equal(t, []string{
		BidderBROI, BidderLinear, BidderMPID, BidderMystique, BidderRobust,
		BidderRobustPID, BidderSimple, BidderSlivkins, BidderTAPID,
	}, names)
}

func TestNewBidder_AllNamesConstruct(t *testing.T) {
	tr := uniformTraffic()
	for _, name := range ValidBidders() {
		b, err := NewBidder(name, tr, DefaultParams())
		require.NoError(t, err, name)
		require.NotNil(t, b, name)
	}
}

func TestColdStartBids(t *testing.T) {
	// On an empty history every strategy's first bid is a deterministic
	// function of the campaign sizing alone.
	expected := map[string]float64{
		BidderLinear:    300,              // initial balance * 0.3
		BidderTAPID:     370,              // initial balance * 0.37
		BidderMPID:      14.8,             // (budget/25) * 0.37
		BidderRobustPID: 14.8,             // shares the m-pid cold start
		BidderMystique:  300,              // pf0
		BidderBROI:      dualAscentMinBid, // floored at ladder bin 10
		BidderSlivkins:  dualAscentMinBid, // same floor
		BidderSimple:    0,                // zero rates, zero bid
		BidderRobust:    0,                // zero rates, zero bid
	}

	tr := uniformTraffic()
	for name, want := range expected {
		b, err := NewBidder(name, tr, DefaultParams())
		require.NoError(t, err, name)
		got := b.PlaceBid(coldStartInput(), NewHistory())
		assert.InDelta(t, want, got, 1e-9, name)
	}
}
