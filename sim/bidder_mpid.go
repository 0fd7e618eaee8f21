package sim

// Model-predictive PID, after "Bid Optimization by Multivariable Control in
// Display Advertising", https://arxiv.org/pdf/1905.10928

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

const (
	mpidConstraintDiv = 25
	mpidMinBidDiv     = 5
)

// MPIDBidder is the model-predictive PID controller: a two-dimensional PID
// loop on the (budget pace, effective CPC) error vector, mapped through an
// exponential link onto the dual variables (p, q) of the underlying
// allocation problem. The duals are initialized with a one-shot LP solve on
// the first observed rate curves.
type MPIDBidder struct {
	traffic *Traffic

	budget        float64
	kp, ki, kd    [2]float64
	correction    [2][2]float64
	auctionMode   string
	coldStartCoef float64
	lowerClip     float64
	upperClip     float64

	x0        [2]float64
	errorHist [][2]float64
	click     float64
	lastClick float64
	reference [2]float64
	C         float64
	minBid    float64
	initBid   float64
	prevBids  []float64
}

// NewMPIDBidder creates a model-predictive PID controller. The budget and
// horizon parameters must be positive and the auction mode supported;
// construction fails fast otherwise.
func NewMPIDBidder(traffic *Traffic, params Params) (*MPIDBidder, error) {
	if params.Budget <= 0 || params.Horizon <= 0 {
		return nil, fmt.Errorf("m-pid: budget and horizon must be positive, got B=%v n=%v",
			params.Budget, params.Horizon)
	}
	if !ValidAuctionMode(params.AuctionMode) {
		return nil, fmt.Errorf("m-pid: wrong auction mode %q, only %q and %q are accepted",
			params.AuctionMode, AuctionVCG, AuctionFPA)
	}

	alpha, beta := params.CorrectionAlpha, params.CorrectionBeta
	// The per-click constraint scales with the campaign budget.
	constraint := params.Budget / mpidConstraintDiv
	b := &MPIDBidder{
		traffic:       traffic,
		budget:        params.Budget,
		kp:            params.MPIDKp,
		ki:            params.MPIDKi,
		kd:            params.MPIDKd,
		correction:    [2][2]float64{{alpha, 1 - alpha}, {1 - beta, beta}},
		auctionMode:   params.AuctionMode,
		coldStartCoef: params.PIDColdStartCoef,
		lowerClip:     params.MPIDLowerClip,
		upperClip:     params.MPIDUpperClip,

		// Reference vector [ideal budget pace, target CPC].
		reference: [2]float64{0, constraint},
		C:         constraint,
		minBid:    math.Floor(constraint / mpidMinBidDiv),
	}
	b.initBid = b.C * b.coldStartCoef
	b.prevBids = []float64{b.initBid}
	return b, nil
}

// PlaceBid implements Bidder.
func (b *MPIDBidder) PlaceBid(input BidderInput, history *History) float64 {
	b.reference[0] = b.budgetPace(input)
	b.lastClick = input.Clicks - input.PrevClicks

	var p, q float64
	switch {
	case history.Len() == 0:
		// Cold start: return a simple initial bid
		return b.initBid
	case history.Len() == 1:
		// Chilly start: initialize the duals with the LP solve
		var err error
		p, q, err = solveBudgetLP(input.Curves, b.budget, b.C)
		if err != nil {
			logrus.Warnf("m-pid: dual initialization LP failed, using floor duals: %v", err)
		}
		p, q = math.Max(p, 0.1), math.Max(q, 0.1)
		b.x0 = [2]float64{p, q}
	default:
		spent := input.PrevBalance - input.Balance
		curCPC := 0.0
		if input.Clicks > 0 {
			curCPC = (input.InitialBalance - input.Balance) / input.Clicks
		}
		b.click = input.Clicks
		p, q = b.pidCompute(b.reference, [2]float64{spent, curCPC})
	}

	bid := math.Max(b.bidCompute(p, q, input.PrevCTR, input.PrevCVR), b.minBid)
	meanBid := stat.Mean(b.prevBids, nil)
	bid = clip(bid, b.lowerClip*meanBid, b.upperClip*meanBid)
	b.prevBids = append(b.prevBids, bid)
	return bid
}

// pidCompute advances the 2D PID loop on the reference/observation error and
// maps the control signal through the correction matrix and the exponential
// link onto updated duals.
func (b *MPIDBidder) pidCompute(reference, y [2]float64) (float64, float64) {
	curError := [2]float64{reference[0] - y[0], reference[1] - y[1]}
	if b.lastClick != 0 {
		curError[1] *= b.lastClick
	}
	b.errorHist = append(b.errorHist, curError)

	var u [2]float64
	for d := 0; d < 2; d++ {
		last := b.errorHist[len(b.errorHist)-1][d]
		sum := 0.0
		for _, e := range b.errorHist {
			sum += e[d]
		}
		u[d] = b.kp[d]*last + b.ki[d]*sum
		if len(b.errorHist) > 1 {
			u[d] += b.kd[d] * (last - b.errorHist[len(b.errorHist)-2][d])
		}
	}
	if b.click != 0 {
		u[1] /= b.click
	}
	u = b.applyCorrection(u)

	var x [2]float64
	for d := 0; d < 2; d++ {
		x[d] = b.x0[d] * math.Exp(-clip(u[d], -700, 700))
	}
	return x[0], x[1]
}

// applyCorrection mixes the raw control components through the fixed 2x2
// correction matrix.
func (b *MPIDBidder) applyCorrection(u [2]float64) [2]float64 {
	return [2]float64{
		b.correction[0][0]*u[0] + b.correction[0][1]*u[1],
		b.correction[1][0]*u[0] + b.correction[1][1]*u[1],
	}
}

func (b *MPIDBidder) bidCompute(p, q, ctr, cvr float64) float64 {
	pq := math.Max(p+q, 1e-4)
	bid := (cvr + ctr*b.C*q) / pq
	return b.coldStartCoef * bid
}

// budgetPace is the ideal spend for the next hour: the remaining balance
// weighted by the next hour's fraction of the remaining traffic. Zero when
// no traffic remains.
func (b *MPIDBidder) budgetPace(input BidderInput) float64 {
	leftTraffic := b.traffic.Share(input.RegionID, input.CurrTime, input.CampaignEnd)
	if leftTraffic == 0 {
		return 0
	}
	curTraffic := b.traffic.Share(input.RegionID, input.CurrTime, input.CurrTime+HourSeconds)
	return input.Balance * (curTraffic / leftTraffic)
}
