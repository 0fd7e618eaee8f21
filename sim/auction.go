package sim

import "fmt"

// Auction settlement modes.
const (
	AuctionVCG = "VCG"
	AuctionFPA = "FPA"
)

// ValidAuctionMode reports whether mode names a supported settlement rule.
func ValidAuctionMode(mode string) bool {
	return mode == AuctionVCG || mode == AuctionFPA
}

// StepOutcome is the settlement result of one one-hour auction step.
type StepOutcome struct {
	Bid        float64
	Spent      float64
	Visibility float64
	Clicks     float64
	Contacts   float64
}

// Settle converts a bid into realized spend, visibility, clicks and contacts
// against one statistics window. The surplus columns are marginal per bin,
// so summing every recorded bin at or below the bid's bin gives prefix-sum
// semantics: a higher bid wins a superset of auctions. A non-positive bid
// maps to the sentinel no-bid bin and settles nothing.
//
// Under VCG the spend is the summed win-bid surplus; under FPA every contact
// is paid at the bid price.
func Settle(window []StatsRow, bid float64, mode string) (StepOutcome, error) {
	bidBin := PriceToBin(bid)

	var winBid, visibility, clicks, contacts float64
	for _, row := range window {
		if row.PriceBin > bidBin {
			continue
		}
		winBid += row.WinBidSurplus
		visibility += row.VisibilitySurplus
		clicks += row.ClicksSurplus
		contacts += row.ContactsSurplus
	}

	switch mode {
	case AuctionVCG:
		return StepOutcome{
			Bid:        bid,
			Spent:      winBid,
			Visibility: visibility,
			Clicks:     clicks,
			Contacts:   contacts,
		}, nil
	case AuctionFPA:
		return StepOutcome{
			Bid:        bid,
			Spent:      contacts * bid,
			Visibility: visibility,
			Clicks:     clicks,
			Contacts:   contacts,
		}, nil
	default:
		return StepOutcome{}, fmt.Errorf("auction mode must be %q or %q, got %q",
			AuctionVCG, AuctionFPA, mode)
	}
}
