package sim

// RobustPIDBidder combines the model-predictive PID control loop with the
// robust dual bid formula: the 2D PID drives the duals exactly as MPIDBidder
// does, and the bid is the plain (CVR + CTR*C*q)/(p+q) form shared with
// RobustBid. The confidence-radius shading RobustBid applies while winning
// is deliberately not carried here; its interaction with the PID-driven
// duals is an open tuning question.
type RobustPIDBidder struct {
	*MPIDBidder
}

// NewRobustPIDBidder creates the PID-driven robust controller. Parameter
// validation matches NewMPIDBidder.
func NewRobustPIDBidder(traffic *Traffic, params Params) (*RobustPIDBidder, error) {
	inner, err := NewMPIDBidder(traffic, params)
	if err != nil {
		return nil, err
	}
	return &RobustPIDBidder{MPIDBidder: inner}, nil
}
