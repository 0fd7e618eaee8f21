package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyOf(c *Campaign, steps []struct{ spend, clicks float64 }) *History {
	h := NewHistory()
	for _, s := range steps {
		c.Balance -= s.spend
		c.Clicks += s.clicks
		c.CurrTime += HourSeconds
		h.Add(c, 1, s.spend, s.clicks, 0)
	}
	return h
}

func TestSummarize_SkipsEmptyHistories(t *testing.T) {
	c := testCampaign(1000)
	h := historyOf(c, []struct{ spend, clicks float64 }{{100, 2}, {50, 1}})

	summaries := Summarize([]*History{NewHistory(), h})
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, c.CampaignID, s.CampaignID)
	assert.Equal(t, []float64{100, 50}, s.SpendHistory)
	assert.Equal(t, []float64{2, 1}, s.ClicksHistory)
	assert.Equal(t, 3.0, s.Clicks)
	assert.Equal(t, 1000.0, s.InitialBalance)
}

func TestClicksSum(t *testing.T) {
	h1 := historyOf(testCampaign(1000), []struct{ spend, clicks float64 }{{10, 2}})
	h2 := historyOf(testCampaign(1000), []struct{ spend, clicks float64 }{{10, 5}, {10, 1}})
	score := CompileMetrics([]*History{h1, h2}, uniformTraffic())
	assert.InDelta(t, 8.0, score.ClicksSum, 1e-12)
}

func TestQuickspendFraction(t *testing.T) {
	// First campaign dumps its whole budget in the first hour of 24;
	// second one paces evenly. Exactly half the batch is quick.
	fast := historyOf(testCampaign(1000), make([]struct{ spend, clicks float64 }, 24))
	fast.rows[0].Spend = 1000
	slowSteps := make([]struct{ spend, clicks float64 }, 24)
	for i := range slowSteps {
		slowSteps[i].spend = 1000.0 / 24
	}
	slow := historyOf(testCampaign(1000), slowSteps)

	summaries := Summarize([]*History{fast, slow})
	assert.InDelta(t, 0.5, quickspendFraction(summaries), 1e-12)
}

func TestRMSEWithTraffic_TracksPacingQuality(t *testing.T) {
	// Spending exactly the traffic-weighted ideal each settled hour leaves
	// only the trailing padding hour's miss: score 5/24 on a uniform
	// 24-hour campaign. A campaign that never spends misses every hour by
	// the per-hour ideal and scores 25/24.
	traffic := uniformTraffic()
	c := testCampaign(1000)
	trafficTotal := traffic.Share(c.RegionID, c.CampaignStart, c.CampaignEnd)

	idealSteps := make([]struct{ spend, clicks float64 }, 24)
	for i := range idealSteps {
		hour := c.CampaignStart + int64(i)*HourSeconds
		share := traffic.Share(c.RegionID, hour, hour+HourSeconds) / trafficTotal
		idealSteps[i].spend = 1000 * share
	}
	ideal := Summarize([]*History{historyOf(testCampaign(1000), idealSteps)})
	assert.InDelta(t, 5.0/24, rmseWithTraffic(ideal, traffic), 1e-6)

	idle := Summarize([]*History{historyOf(testCampaign(1000), make([]struct{ spend, clicks float64 }, 24))})
	assert.InDelta(t, 25.0/24, rmseWithTraffic(idle, traffic), 1e-6)
}

func TestCPCRelativity_PenalizesClicklessCampaigns(t *testing.T) {
	clicked := Summarize([]*History{historyOf(testCampaign(1000),
		[]struct{ spend, clicks float64 }{{100, 2}, {60, 3}})})
	got := cpcRelativity(clicked)
	// Per-hour CPCs 50 and 20 averaged over the two hours.
	assert.InDelta(t, 35, got, 1e-9)

	clickless := Summarize([]*History{historyOf(testCampaign(1000),
		[]struct{ spend, clicks float64 }{{100, 0}})})
	assert.GreaterOrEqual(t, cpcRelativity(clickless), 1e4)
}

func TestCompileMetrics_EmptyBatch(t *testing.T) {
	score := CompileMetrics(nil, uniformTraffic())
	assert.Zero(t, score.ClicksSum)
	assert.Zero(t, score.RMSE)
	assert.Zero(t, score.Quickspend)
	assert.Zero(t, score.CPCRelativity)
}

func TestScoreString(t *testing.T) {
	s := Score{CPCRelativity: 1, RMSE: 2, ClicksSum: 3, Quickspend: 0.5}
	assert.Equal(t, "cpc_rel=1.0000 rmse=2.0000 clicks_sum=3.00 quickspend=0.5000", s.String())
}
