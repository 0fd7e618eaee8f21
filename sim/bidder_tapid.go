package sim

import (
	"math"
	"math/rand"
	"time"
)

// TAPIDBidder is the traffic-aware PID controller: a classic PID loop whose
// independent variable is the cumulative traffic share instead of wall-clock
// time. The error signal is the gap between the ideal traffic-weighted
// spend rate and the realized one.
type TAPIDBidder struct {
	traffic       *Traffic
	kp, ki, kd    float64
	histLen       int
	sampling      float64
	coldStartCoef float64
	rng           *rand.Rand

	campaignTraffic float64
	avgSpend        float64
	balanceHist     []float64
	spendHist       []float64
	trShareHist     []float64
	times           []int64
}

// NewTAPIDBidder creates a traffic-aware PID controller over a shared
// traffic model.
func NewTAPIDBidder(traffic *Traffic, params Params) (*TAPIDBidder, error) {
	return &TAPIDBidder{
		traffic:       traffic,
		kp:            params.KP,
		ki:            params.KI,
		kd:            params.KD,
		histLen:       params.HistLen,
		sampling:      params.Sampling,
		coldStartCoef: params.PIDColdStartCoef,
		rng:           rand.New(rand.NewSource(params.Seed)),
	}, nil
}

// pidControl computes the bin-space control signal from balance and
// cumulative traffic-share histories. Returns 0 until three observations
// exist or while the traffic share is not moving.
func pidControl(avgSpend, initialBalance float64, balances, shares []float64, kp, ki, kd float64) float64 {
	n := len(shares)
	if n < 3 {
		return 0
	}

	// Error function: ideal average spend minus realized spend per unit of
	// traffic. A zero traffic denominator falls back to a small constant.
	errFunc := make([]float64, n)
	for i := range shares {
		tr := shares[i]
		if tr <= 0 {
			tr = 0.005
		}
		errFunc[i] = avgSpend - (initialBalance-balances[i])/tr
	}

	dt := shares[n-1] - shares[n-2]
	if dt == 0 {
		return 0
	}

	// Proportional component
	pPart := kp * errFunc[n-1]
	// Integral component, trapezoidal in traffic share
	iPart := 0.0
	for i := 1; i < n; i++ {
		iPart += errFunc[i] * (shares[i] - shares[i-1])
	}
	iPart *= ki
	// Differential component, backward difference
	dPart := kd / dt * (errFunc[n-1] - errFunc[n-2])

	return pPart + iPart + dPart
}

// PlaceBid implements Bidder.
func (b *TAPIDBidder) PlaceBid(input BidderInput, history *History) float64 {
	coldStartBid := input.InitialBalance * b.coldStartCoef
	if history.Len() == 0 {
		return coldStartBid
	}

	// Simulate calculator computation skips
	if b.sampling < 1 && b.rng.Float64() > b.sampling {
		return input.PrevBid
	}

	b.balanceHist = append(b.balanceHist, input.Balance)
	b.times = append(b.times, input.CurrTime)
	b.spendHist = append(b.spendHist, input.PrevBalance-input.Balance)
	if len(b.times) > 1 {
		b.trShareHist = append(b.trShareHist, b.traffic.Share(
			input.RegionID, input.CampaignStart, b.times[len(b.times)-1]))
	} else {
		b.trShareHist = append(b.trShareHist, 0)
	}

	if b.campaignTraffic == 0 {
		b.campaignTraffic = b.traffic.Share(input.RegionID, input.CampaignStart, input.CampaignEnd)
		if b.campaignTraffic == 0 {
			return coldStartBid
		}
		b.avgSpend = input.InitialBalance / b.campaignTraffic
	}

	balances, shares := b.balanceHist, b.trShareHist
	if b.histLen > 0 && len(balances) > b.histLen {
		balances = balances[len(balances)-b.histLen:]
		shares = shares[len(shares)-b.histLen:]
	}
	action := pidControl(b.avgSpend, input.InitialBalance, balances, shares, b.kp, b.ki, b.kd)

	// Limit bid change amplitude during night hours
	hour := time.Unix(input.CurrTime, 0).UTC().Hour()
	if hour >= 1 && hour <= 6 {
		action /= 5
	}

	// The previous bin is kept unrounded so sub-bin adjustments accumulate.
	prevBin := math.Log(input.PrevBid) / math.Log(binRatio)
	bin := clip(prevBin+action, prevBin-7, prevBin+4)

	return BinToPrice(bin)
}
