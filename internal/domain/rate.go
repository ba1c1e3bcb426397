package domain

import (
	"fmt"
	"strconv"
)

// Rate is a playback speed multiplier
type Rate float64

// Rates is the enumerated set of speeds offered by the player
var Rates = []Rate{1.0, 1.25, 1.5, 2.0}

// DefaultRate is normal speed
const DefaultRate Rate = 1.0

// ParseRate validates a speed against the enumerated set
func ParseRate(v float64) (Rate, error) {
	for _, r := range Rates {
		if float64(r) == v {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidRate, v)
}

// Label renders "1x", "1.25x", "1.5x", ...
func (r Rate) Label() string {
	return strconv.FormatFloat(float64(r), 'f', -1, 64) + "x"
}

// NextRate cycles to the following speed in the enumerated set
func (r Rate) NextRate() Rate {
	for i, candidate := range Rates {
		if candidate == r {
			return Rates[(i+1)%len(Rates)]
		}
	}
	return DefaultRate
}
