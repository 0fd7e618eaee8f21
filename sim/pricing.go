package sim

import "math"

// The production bid ladder is geometric with ratio 1.2: price = 1.2**bin.
// Moving a fixed number of bins is a bounded multiplicative price change,
// which is why every controller clips its adjustments in bin space.
const binRatio = 1.2

// NoBidBin is the sentinel bin for non-positive bids. It sits far below any
// recorded statistics bin, so a no-bid step settles nothing.
const NoBidBin = -1000

// PriceToBin converts a bid price to its discrete ladder bin.
func PriceToBin(price float64) int {
	if price <= 0 {
		return NoBidBin
	}
	return int(math.Round(math.Log(price) / math.Log(binRatio)))
}

// BinToPrice converts a ladder bin back to a price. It accepts a float bin
// so controllers can accumulate sub-bin adjustments without rounding.
func BinToPrice(bin float64) float64 {
	return math.Pow(binRatio, bin)
}
