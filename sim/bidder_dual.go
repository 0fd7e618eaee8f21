package sim

// Online dual-ascent controllers, after "Online Bidding Algorithms with
// Strict Return on Investment and Budget Constraints",
// https://arxiv.org/pdf/2301.13306

import (
	"fmt"
	"math"
)

// dualAscentMinBid floors the dual-ascent controllers' bids at ladder bin 10.
var dualAscentMinBid = math.Pow(binRatio, 10)

// dualAscent holds the shared control law of the BROI and Slivkins
// controllers: two scalar multipliers, one per constraint (return on
// investment and budget), each nudged every step by a gradient-style
// correction from the last one or two observed outcomes. The bid is the
// estimated click value deflated by the binding multiplier.
type dualAscent struct {
	ro   float64
	vBar float64
	w    float64

	muROI     float64
	muBudget  float64
	etaROI    float64
	etaBudget float64
	valueHist []float64
}

func validateDualAscentParams(params Params) error {
	if params.Ro <= 0 || params.VBar <= 0 {
		return fmt.Errorf("dual ascent: ro and v_bar must be positive, got ro=%v v_bar=%v",
			params.Ro, params.VBar)
	}
	return nil
}

func newDualAscent(params Params) dualAscent {
	return dualAscent{
		ro:        params.Ro,
		vBar:      params.VBar,
		w:         0.1,
		muBudget:  1 / (2 * params.Ro),
		etaROI:    1 / params.VBar,
		etaBudget: math.Min(1/params.Ro, 1/params.VBar),
	}
}

// placeBid runs one dual-ascent step. The ROI multiplier is only informed
// by steps that actually spent; a step with no clicks updates the budget
// multiplier alone. With two steps of history the correction is the
// optimistic blend: the newest gradient doubled, the older one subtracted.
func (b *dualAscent) placeBid(input BidderInput, history *History) float64 {
	theta := input.InitialBalance
	gamma := theta * input.PrevCTR / b.w
	b.muROI = gamma - 1

	value := input.PrevCTR * theta
	var deltaMuROI, deltaMuBudget float64

	if history.Len() > 0 {
		price := history.Last().Spend
		x := 0.0
		if price != 0 {
			x = 1
		}
		b.valueHist = append(b.valueHist, value)

		deltaMuROI = b.etaROI * x * (gamma*price - value)
		deltaMuBudget = b.etaBudget * (x*price - b.ro)
	}

	if history.Len() > 1 {
		rows := history.Rows()
		xPrev := rows[len(rows)-2].StepClicks
		pricePrev := rows[len(rows)-2].Spend
		valuePrev := b.valueHist[len(b.valueHist)-2]

		deltaMuROI = deltaMuROI*2 - b.etaROI*xPrev*(gamma*pricePrev-valuePrev)
		deltaMuBudget = deltaMuBudget*2 - b.etaBudget*(xPrev*pricePrev-b.ro)
	}

	b.muBudget += deltaMuBudget
	b.muROI += deltaMuROI

	// Box clip both multipliers each step.
	b.muBudget = clip(b.muBudget, 0, 1/(2*b.ro))
	b.muROI = clip(b.muROI, 0, math.Max(gamma-1, 0))

	mu := math.Max(math.Max(b.muROI, b.muBudget), 0)
	return math.Max(dualAscentMinBid, value/(mu+1))
}

// BROI is the budget-constrained ROI controller.
type BROI struct {
	dualAscent
}

// NewBROI creates a BROI controller. The pacing parameters ro and v_bar
// must be positive.
func NewBROI(params Params) (*BROI, error) {
	if err := validateDualAscentParams(params); err != nil {
		return nil, err
	}
	return &BROI{dualAscent: newDualAscent(params)}, nil
}

// PlaceBid implements Bidder.
func (b *BROI) PlaceBid(input BidderInput, history *History) float64 {
	return b.placeBid(input, history)
}

// SlivkinsBidder is the Slivkins-style variant of the dual-ascent
// controller. It shares BROI's update rule; the variants differ only in
// how their pacing parameters are tuned.
type SlivkinsBidder struct {
	dualAscent
}

// NewSlivkinsBidder creates a Slivkins-style dual-ascent controller. The
// pacing parameters ro and v_bar must be positive.
func NewSlivkinsBidder(params Params) (*SlivkinsBidder, error) {
	if err := validateDualAscentParams(params); err != nil {
		return nil, err
	}
	return &SlivkinsBidder{dualAscent: newDualAscent(params)}, nil
}

// PlaceBid implements Bidder.
func (b *SlivkinsBidder) PlaceBid(input BidderInput, history *History) float64 {
	return b.placeBid(input, history)
}
