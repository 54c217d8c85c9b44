package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidPrice marks a quote that cannot represent a real two-sided market
// price: American odds of 0, or decimal odds at or below 1.0 (a price that
// would imply probability >= 1).
var ErrInvalidPrice = errors.New("invalid price")

// AmericanToImplied converts American odds to an implied probability in (0,1).
//
//	-150 -> 0.6000 (favourite)
//	+130 -> 0.4348 (underdog)
//	-110 -> 0.5238 (standard vig line)
func AmericanToImplied(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: american odds of 0", ErrInvalidPrice)
	}
	if odds < 0 {
		o := float64(-odds)
		return o / (o + 100), nil
	}
	return 100 / (float64(odds) + 100), nil
}

// AmericanToDecimal converts American odds to decimal (European) format.
//
//	-150 -> 1.6667
//	+130 -> 2.3000
func AmericanToDecimal(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: american odds of 0", ErrInvalidPrice)
	}
	if odds < 0 {
		return 1 + 100/float64(-odds), nil
	}
	return 1 + float64(odds)/100, nil
}

// DecimalToAmerican converts decimal odds back to the American encoding.
// Decimal odds at or below 1.0 imply a guaranteed non-loss and are rejected.
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds %g <= 1.0", ErrInvalidPrice, dec)
	}
	if dec >= 2.0 {
		return int((dec - 1) * 100), nil
	}
	return int(-100 / (dec - 1)), nil
}

// DecimalToImplied converts decimal odds to an implied probability in (0,1).
func DecimalToImplied(dec float64) (float64, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds %g <= 1.0", ErrInvalidPrice, dec)
	}
	return 1 / dec, nil
}
