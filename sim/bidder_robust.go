package sim

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const robustBidConstraint = 10

// RobustBid is the worst-case optimization controller: it bids the dual
// solution of an allocation problem whose predicted click and conversion
// rates live in an uncertainty ball of radius sqrt(2*eps). The duals
// (p, q) are fixed parameters or recomputed once via the robust solve, and
// an actively winning campaign shades its bid by a confidence-radius
// correction informed by the cohort's conversion-rate samples.
type RobustBid struct {
	p, q  float64
	c     float64
	alpha float64
	useLP bool
}

// NewRobustBid creates a RobustBid controller. The uncertainty radius eps
// must be non-negative.
func NewRobustBid(params Params) (*RobustBid, error) {
	return &RobustBid{
		p:     params.P,
		q:     params.Q,
		c:     robustBidConstraint,
		alpha: math.Sqrt(2 * params.Eps),
		useLP: params.UseLP,
	}, nil
}

// PlaceBid implements Bidder.
func (b *RobustBid) PlaceBid(input BidderInput, history *History) float64 {
	if history.Len() == 1 && b.useLP {
		p, q, err := solveRobustLP(input.Curves, input.Balance, b.alpha, b.c,
			input.Winning, input.CVRList, input.T)
		if err != nil {
			logrus.Warnf("robust: worst-case solve failed, keeping duals: %v", err)
		} else {
			b.p, b.q = p, q
		}
	}

	pq := math.Max(b.p+b.q, 1e-4)
	bid := (input.PrevCVR + b.q*b.c*input.PrevCTR) / pq

	// Confidence-radius correction, applied only while actively winning.
	if input.Winning {
		if len(input.CVRList) == 0 {
			if input.T >= 1 {
				bid += -b.alpha / pq * (b.q / math.Sqrt(float64(input.T)))
			}
		} else if cvrNorm := floats.Norm(input.CVRList, 2); cvrNorm > 0 {
			bid += -b.alpha / pq * (input.PrevCVR * input.PrevCVR / cvrNorm)
		}
	}
	return bid
}
