package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMystique_FirstCall_ReturnsPF0(t *testing.T) {
	b, err := NewMystique(uniformTraffic(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 300.0, b.PlaceBid(coldStartInput(), NewHistory()))
}

func TestMystique_QuotaExhausted_DecaysOnCadence(t *testing.T) {
	// Budget gone on day one: the controller holds the bid and shaves 5%
	// off on every third call.
	b, err := NewMystique(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	in := coldStartInput()
	require.Equal(t, 300.0, b.PlaceBid(in, NewHistory())) // count 1

	in.Balance = 0
	bids := make([]float64, 0, 3)
	for i := 1; i <= 3; i++ {
		in.CurrTime = mondayMidnight + int64(i)*HourSeconds
		bids = append(bids, b.PlaceBid(in, NewHistory()))
	}
	assert.Equal(t, 300.0, bids[0])       // count 2: hold
	assert.Equal(t, 300.0, bids[1])       // count 3: hold
	assert.InDelta(t, 285, bids[2], 1e-9) // count 4: 0.95 * 300
}

func TestMystique_Overspend_CorrectsDownOnCadence(t *testing.T) {
	// 48-hour campaign, day quota 500. Holding within quota, the bid only
	// moves on the one-in-three cadence, and an overspend moves it down by
	// the saturated correction: 0.5*cMax + 0.5*cMin = 27.5.
	b, err := NewMystique(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	in := coldStartInput()
	in.CampaignEnd = mondayMidnight + 48*HourSeconds
	require.Equal(t, 300.0, b.PlaceBid(in, NewHistory())) // count 1

	for i, balance := range []float64{900, 800} {
		in.Balance = balance
		in.CurrTime = mondayMidnight + int64(i+1)*HourSeconds
		// counts 2 and 3: off cadence, bid held
		assert.Equal(t, 300.0, b.PlaceBid(in, NewHistory()))
	}

	in.Balance = 700
	in.CurrTime = mondayMidnight + 3*HourSeconds
	got := b.PlaceBid(in, NewHistory()) // count 4: correction step
	assert.InDelta(t, 272.5, got, 1e-9)
}

func TestMystique_SubDayCampaign_WholeBudgetAsOneQuota(t *testing.T) {
	// A 6-hour campaign still gets a full day quota, so moderate spend
	// does not trip the quota guard.
	b, err := NewMystique(uniformTraffic(), DefaultParams())
	require.NoError(t, err)

	in := coldStartInput()
	in.CampaignEnd = mondayMidnight + 6*HourSeconds
	require.Equal(t, 300.0, b.PlaceBid(in, NewHistory()))

	in.Balance = 600
	in.CurrTime = mondayMidnight + HourSeconds
	got := b.PlaceBid(in, NewHistory()) // count 2: off cadence, held
	assert.Equal(t, 300.0, got)
}
