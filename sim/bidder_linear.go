package sim

// LinearBidder is the adaptive linear model (ALM) baseline: it fits a line
// through the two most recent (traffic share, normalized balance) points,
// extrapolates the balance to the traffic share expected at campaign end,
// and nudges the previous bid's ladder bin by the extrapolated gap times a
// fixed factor. The goal is a budget that runs out exactly when the
// campaign ends.
type LinearBidder struct {
	traffic       *Traffic
	coldStartCoef float64
	factor        float64
	lowerClip     float64
	upperClip     float64
}

// NewLinearBidder creates the ALM baseline over a shared traffic model.
func NewLinearBidder(traffic *Traffic, params Params) (*LinearBidder, error) {
	return &LinearBidder{
		traffic:       traffic,
		coldStartCoef: params.ColdStartCoef,
		factor:        params.Factor,
		lowerClip:     params.LowerClip,
		upperClip:     params.UpperClip,
	}, nil
}

// PlaceBid implements Bidder.
func (b *LinearBidder) PlaceBid(input BidderInput, history *History) float64 {
	// Cold start bid
	if history.Len() == 0 {
		return input.InitialBalance * b.coldStartCoef
	}

	start, end := input.CampaignStart, input.CampaignEnd
	curTraffic := b.traffic.Share(input.RegionID, start, input.CurrTime)
	prevTraffic := b.traffic.Share(input.RegionID, start, input.PrevTime)
	leftTraffic := b.traffic.Share(input.RegionID, input.CurrTime, end)

	// Don't adjust the bid during night hours, when traffic barely moves.
	// The used-cars category gets a hard one-bin ceiling instead.
	lowerClip, upperClip := b.lowerClip, b.upperClip
	if input.LogicalCategory == "Transport.UsedCars" {
		upperClip = 1
		if curTraffic == prevTraffic {
			return input.PrevBid
		}
	} else if curTraffic-prevTraffic < 1.0/24/7/2 {
		return input.PrevBid
	}

	// Work in balance fractions of the initial budget.
	balance := input.Balance / input.InitialBalance
	prevBalance := input.PrevBalance / input.InitialBalance
	slope := (balance - prevBalance) / (curTraffic - prevTraffic)
	balanceAtEnd := balance + slope*leftTraffic

	// Apply the linear correction in bin space, bounded to an asymmetric
	// window around the previous bin.
	prevBin := float64(PriceToBin(input.PrevBid))
	bin := prevBin + balanceAtEnd*b.factor
	bin = clip(bin, prevBin-lowerClip, prevBin+upperClip)

	return BinToPrice(bin)
}

// clip bounds x to [lo, hi].
func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
