package sim

import "math"

const simpleBidConstraint = 100

// SimpleBid bids the closed-form dual solution of the budget-constrained
// allocation problem: bid = (CVR + q*C*CTR) / (p + q). The duals (p, q) are
// either fixed parameters or recomputed once, on the first settled step,
// from the observed rate curves via the budget LP.
type SimpleBid struct {
	p, q  float64
	c     float64
	useLP bool
}

// NewSimpleBid creates a SimpleBid controller.
func NewSimpleBid(params Params) (*SimpleBid, error) {
	return &SimpleBid{
		p:     params.P,
		q:     params.Q,
		c:     simpleBidConstraint,
		useLP: params.UseLP,
	}, nil
}

// PlaceBid implements Bidder.
func (b *SimpleBid) PlaceBid(input BidderInput, history *History) float64 {
	if history.Len() == 1 && b.useLP {
		if p, q, err := solveBudgetLP(input.Curves, input.Balance, b.c); err == nil {
			b.p, b.q = math.Max(p, 0.1), math.Max(q, 0.1)
		}
	}
	pq := math.Max(b.p+b.q, 1e-4)
	return (input.PrevCVR + b.q*b.c*input.PrevCTR) / pq
}
