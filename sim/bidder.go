package sim

import (
	"fmt"
	"sort"
)

// BidderInput is the per-step snapshot handed to a strategy: the campaign's
// current and previous state flattened into one struct, plus the market
// signals some strategies consume. The loop owns it; strategies only read.
type BidderInput struct {
	ItemID          int64
	CampaignID      int64
	LocID           int64
	RegionID        int64
	LogicalCategory string
	MicrocatExt     int64

	Balance        float64
	InitialBalance float64
	Clicks         float64
	CampaignStart  int64
	CampaignEnd    int64
	CurrTime       int64

	PrevBalance  float64
	PrevBid      float64
	PrevClicks   float64
	PrevContacts float64
	PrevTime     int64

	DesiredClicks int64
	DesiredTime   int64

	// Rate estimates from the nearest non-empty statistics window. Zero
	// until the first settled step observes a window.
	PrevCTR float64
	PrevCVR float64
	// Curves holds the per-bin rate curves captured at the first observed
	// window, for the LP sub-solves. Nil until then.
	Curves *RateCurves

	// Cohort aggregates, lagged by one hour. In single-campaign mode they
	// reflect only this campaign's own past steps.
	Winning bool
	T       int
	CVRList []float64
}

// Bidder produces one bid per simulated hour. Implementations own whatever
// internal numeric state their control law needs; that state is constructed
// fresh per campaign and never survives it. The returned bid must be
// deterministic given the internal state, and >= 0.
type Bidder interface {
	PlaceBid(input BidderInput, history *History) float64
}

// Params carries the tuning knobs of every strategy, so one YAML file (or
// flag set) can configure any of them. Unused fields are ignored by a given
// strategy. DefaultParams returns the tuned defaults.
type Params struct {
	ColdStartCoef float64 `yaml:"cold_start_coef"`

	// Adaptive linear model.
	Factor    float64 `yaml:"factor"`
	LowerClip float64 `yaml:"lower_clip"`
	UpperClip float64 `yaml:"upper_clip"`

	// Traffic-aware PID and model-predictive PID share a cold-start
	// fraction distinct from the linear baseline's.
	PIDColdStartCoef float64 `yaml:"pid_cold_start_coef"`

	// Traffic-aware PID.
	KP       float64 `yaml:"k_p"`
	KI       float64 `yaml:"k_i"`
	KD       float64 `yaml:"k_d"`
	HistLen  int     `yaml:"hist_len"`
	Sampling float64 `yaml:"sampling"`
	Seed     int64   `yaml:"seed"`

	// Model-predictive PID. The gain pairs act on the two-dimensional
	// (budget pace, CPC) error vector.
	Budget          float64    `yaml:"budget"`
	Horizon         float64    `yaml:"horizon"`
	MPIDKp          [2]float64 `yaml:"mpid_k_p"`
	MPIDKi          [2]float64 `yaml:"mpid_k_i"`
	MPIDKd          [2]float64 `yaml:"mpid_k_d"`
	CorrectionAlpha float64    `yaml:"correction_alpha"`
	CorrectionBeta  float64    `yaml:"correction_beta"`
	AuctionMode     string     `yaml:"auction_mode"`
	MPIDLowerClip   float64    `yaml:"mpid_lower_clip"`
	MPIDUpperClip   float64    `yaml:"mpid_upper_clip"`

	// Mystique daily-quota controller.
	PF0  float64 `yaml:"pf0"`
	CMax float64 `yaml:"c_max"`
	CMin float64 `yaml:"c_min"`
	EMax float64 `yaml:"e_max"`
	EGMC float64 `yaml:"e_gmc"`

	// Online dual-ascent controllers (BROI, Slivkins).
	Theta float64 `yaml:"theta"`
	Ro    float64 `yaml:"ro"`
	VBar  float64 `yaml:"v_bar"`

	// Robust / worst-case controllers (SimpleBid, RobustBid).
	Eps   float64 `yaml:"eps"`
	P     float64 `yaml:"p"`
	Q     float64 `yaml:"q"`
	UseLP bool    `yaml:"use_lp"`
}

// DefaultParams returns the tuned defaults of every strategy.
func DefaultParams() Params {
	return Params{
		ColdStartCoef: 0.3,

		Factor:    2.5,
		LowerClip: 5,
		UpperClip: 5,

		PIDColdStartCoef: 0.37,

		KP:       1e-3,
		KI:       1e-4,
		KD:       6e-5,
		HistLen:  10000,
		Sampling: 1,

		Budget:          1000.0,
		Horizon:         1,
		MPIDKp:          [2]float64{4.377576468445429e-06, 0.0333706926755201},
		MPIDKi:          [2]float64{0.5624063314848002, 0.6955061331189949},
		MPIDKd:          [2]float64{0.008335020922363772, 0.003801165974001581},
		CorrectionAlpha: 0.22,
		CorrectionBeta:  0.37,
		AuctionMode:     AuctionFPA,
		MPIDLowerClip:   0.5,
		MPIDUpperClip:   2,

		PF0:  300,
		CMax: 50,
		CMin: 5,
		EMax: 10,
		EGMC: 10,

		Theta: 0,
		Ro:    4,
		VBar:  100,

		Eps: 0.01,
		P:   1,
		Q:   1,
	}
}

// Strategy names accepted by NewBidder.
const (
	BidderLinear    = "linear"
	BidderTAPID     = "ta-pid"
	BidderMPID      = "m-pid"
	BidderMystique  = "mystique"
	BidderBROI      = "broi"
	BidderSlivkins  = "slivkins"
	BidderSimple    = "simple"
	BidderRobust    = "robust"
	BidderRobustPID = "robust-pid"
)

var bidderConstructors = map[string]func(*Traffic, Params) (Bidder, error){
	BidderLinear:    func(tr *Traffic, p Params) (Bidder, error) { return NewLinearBidder(tr, p) },
	BidderTAPID:     func(tr *Traffic, p Params) (Bidder, error) { return NewTAPIDBidder(tr, p) },
	BidderMPID:      func(tr *Traffic, p Params) (Bidder, error) { return NewMPIDBidder(tr, p) },
	BidderMystique:  func(tr *Traffic, p Params) (Bidder, error) { return NewMystique(tr, p) },
	BidderBROI:      func(tr *Traffic, p Params) (Bidder, error) { return NewBROI(p) },
	BidderSlivkins:  func(tr *Traffic, p Params) (Bidder, error) { return NewSlivkinsBidder(p) },
	BidderSimple:    func(tr *Traffic, p Params) (Bidder, error) { return NewSimpleBid(p) },
	BidderRobust:    func(tr *Traffic, p Params) (Bidder, error) { return NewRobustBid(p) },
	BidderRobustPID: func(tr *Traffic, p Params) (Bidder, error) { return NewRobustPIDBidder(tr, p) },
}

// ValidBidders lists the accepted strategy names, sorted.
func ValidBidders() []string {
	names := make([]string, 0, len(bidderConstructors))
	for name := range bidderConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBidder creates a bidding strategy by name. The traffic model is shared,
// read-only, across every instance; strategy-internal state is fresh per
// call, so the caller constructs one bidder per campaign run.
func NewBidder(name string, traffic *Traffic, params Params) (Bidder, error) {
	ctor, ok := bidderConstructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown bidder %q, valid bidders: %v", name, ValidBidders())
	}
	return ctor(traffic, params)
}
