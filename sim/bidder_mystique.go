package sim

import "math"

// Mystique is the daily-quota controller: it splits the budget into equal
// per-day quotas, shapes each day's ideal spend curve with the traffic
// model, and corrects the bid against the spend error and its hourly
// gradient. Corrections apply on a one-in-three step cadence; skipped steps
// hold the bid, or decay it slightly once the day's quota is gone.
type Mystique struct {
	traffic *Traffic
	pf0     float64
	cMax    float64
	cMin    float64
	eMax    float64
	eGMC    float64

	count       int
	balancePrev []float64
	bidPrev     []float64
	timePrev    []int64
}

// NewMystique creates a daily-quota controller over a shared traffic model.
func NewMystique(traffic *Traffic, params Params) (*Mystique, error) {
	return &Mystique{
		traffic: traffic,
		pf0:     params.PF0,
		cMax:    params.CMax,
		cMin:    params.CMin,
		eMax:    params.EMax,
		eGMC:    params.EGMC,
	}, nil
}

// PlaceBid implements Bidder.
func (b *Mystique) PlaceBid(input BidderInput, history *History) float64 {
	b.count++
	start, end := input.CampaignStart, input.CampaignEnd
	balance := input.Balance
	currTime := input.CurrTime

	if len(b.bidPrev) == 0 {
		b.remember(balance, currTime, b.pf0)
		return b.pf0
	}

	day := (currTime - start) / HourSeconds / 24
	hour := (currTime - start) / HourSeconds % 24
	desiredDays := (end - start) / HourSeconds / 24
	if desiredDays < 1 {
		// Sub-day campaigns get the whole budget as one day's quota.
		desiredDays = 1
	}
	dayQuote := input.InitialBalance / float64(desiredDays)

	targetSpend := b.targetSpend(start, input.RegionID, dayQuote)
	initialDayBalance := b.initialDayBalance(start, input.InitialBalance, day, hour)

	if initialDayBalance-balance >= dayQuote {
		return b.holdOrDecay(balance, currTime)
	}

	spendError := initialDayBalance - balance - targetSpend[hour]
	gradientSpendError := 0.0
	if hour > 0 {
		desiredGradient := (targetSpend[hour] - targetSpend[hour-1]) / HourSeconds
		realGradient := (b.balancePrev[len(b.balancePrev)-1] - balance) /
			float64(currTime-b.timePrev[len(b.timePrev)-1])
		gradientSpendError = realGradient - desiredGradient
	}

	bid := b.adjustBid(spendError, gradientSpendError)
	b.remember(balance, currTime, bid)
	return bid
}

func (b *Mystique) remember(balance float64, currTime int64, bid float64) {
	b.balancePrev = append(b.balancePrev, balance)
	b.timePrev = append(b.timePrev, currTime)
	b.bidPrev = append(b.bidPrev, bid)
}

// targetSpend is the ideal cumulative spend per hour of one day: the day's
// quota distributed along the day's traffic curve.
func (b *Mystique) targetSpend(start, regionID int64, dayQuote float64) [24]float64 {
	trafficDay := b.traffic.Share(regionID, start, start+daySeconds)

	var target [24]float64
	cum := 0.0
	for h := int64(0); h < 24; h++ {
		hourStart := start + h*HourSeconds
		share := 0.0
		if trafficDay != 0 {
			share = b.traffic.Share(regionID, hourStart, hourStart+HourSeconds) / trafficDay
		}
		cum += dayQuote * share
		target[h] = cum
	}
	return target
}

// initialDayBalance recovers the balance at the start of the current day
// from the controller's own observation log.
func (b *Mystique) initialDayBalance(start int64, initialBalance float64, day, hour int64) float64 {
	if day == 0 {
		return initialBalance
	}

	n := len(b.timePrev)
	hourPrev := make([]int64, n)
	for i, t := range b.timePrev {
		hourPrev[i] = (t - start) / HourSeconds % 24
	}

	if hourPrev[n-1] > hour {
		return b.balancePrev[n-1]
	}
	// Scan back at most half a day for the day rollover.
	for i := n - 1; i > n-12 && i >= 1; i-- {
		if hourPrev[i] < hourPrev[i-1] {
			return b.balancePrev[i]
		}
	}
	return b.balancePrev[n-1]
}

// holdOrDecay handles the day's quota being exhausted: hold the previous
// bid, or decay it slightly on the correction cadence.
func (b *Mystique) holdOrDecay(balance float64, currTime int64) float64 {
	bid := b.bidPrev[len(b.bidPrev)-1]
	if b.count%3 == 1 {
		bid = 0.95 * bid
	}
	b.remember(balance, currTime, bid)
	return bid
}

// adjustBid derives asymmetric correction weights from the ratio of the
// spend error to its gradient and applies a signed, magnitude-capped
// correction on the one-in-three cadence.
func (b *Mystique) adjustBid(spendError, gradientSpendError float64) float64 {
	prevBid := b.bidPrev[len(b.bidPrev)-1]
	if b.count%3 != 1 {
		return prevBid
	}

	tau := 1e6
	if gradientSpendError != 0 {
		tau = -spendError / gradientSpendError
	}

	var ws, wg float64
	if tau < 0 {
		ws, wg = 0.5, 0.5
	} else {
		ws = math.Min(0.9, 0.2*tau)
		wg = 1 - ws
	}

	spendErrorC := math.Min(b.cMax, b.cMax*math.Abs(spendError)/b.eMax)
	gradientSpendErrorI := math.Min(1, math.Abs(gradientSpendError))
	gradientSpendErrorC := math.Max(b.cMin, b.cMax*gradientSpendErrorI/b.eGMC)

	return prevBid -
		ws*spendErrorC*sign(spendError) -
		wg*gradientSpendErrorC*sign(gradientSpendError)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
