package usecase

import "math"

// Policy defaults. The 0.80 discount factor (20% off the estimated list
// price) is the canonical liquidation rule; anything above the sanity ceiling
// is treated as a bad oracle answer.
const (
	DefaultDiscountFactor = 0.80
	DefaultMaxPrice       = 5000.0

	// roundEpsilon keeps .xx5 boundaries from falling victim to binary
	// representation during half-away-from-zero rounding
	roundEpsilon = 1e-9
)

// Policy converts an estimated list price into the final (list, offer) pair.
type Policy struct {
	discountFactor float64
	maxPrice       float64
}

// NewPolicy creates a price policy. Out-of-range arguments fall back to the
// defaults.
func NewPolicy(discountFactor, maxPrice float64) *Policy {
	if discountFactor <= 0 || discountFactor > 1 {
		discountFactor = DefaultDiscountFactor
	}
	if maxPrice <= 0 {
		maxPrice = DefaultMaxPrice
	}
	return &Policy{discountFactor: discountFactor, maxPrice: maxPrice}
}

// MaxPrice returns the configured sanity ceiling
func (p *Policy) MaxPrice() float64 {
	return p.maxPrice
}

// Finalize clamps and rounds the list price and derives the discounted offer
// price. A zero list price forces a zero offer price regardless of the factor.
func (p *Policy) Finalize(listPrice float64) (float64, float64) {
	list := p.clamp(listPrice)
	if list == 0 {
		return 0, 0
	}
	offer := p.clamp(list * p.discountFactor)
	return list, offer
}

// clamp zeroes negative, non-finite and above-ceiling values, then rounds to
// two decimals.
func (p *Policy) clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v > p.maxPrice {
		return 0
	}
	return roundPrice(v)
}

// roundPrice rounds half away from zero at two decimals. Values reaching here
// are always positive.
func roundPrice(v float64) float64 {
	return math.Floor(v*100+0.5+roundEpsilon) / 100
}
