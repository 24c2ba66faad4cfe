package normalize

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/pricetracker/internal/feed"
)

// PriceDecimals is the precision per-million prices are rounded to.
const PriceDecimals = 4

// ErrNegativePrice marks an upstream "unknown/variable" sentinel such as "-1".
var ErrNegativePrice = errors.New("negative price")

var million = decimal.NewFromInt(1_000_000)

// PerMillion converts a per-token price into USD per million tokens, rounded
// to four decimals. Missing or null values are zero (a free tier); values
// that are not numeric, or are negative, are errors.
func PerMillion(perToken feed.Number) (float64, error) {
	d, err := perToken.Decimal()
	if err != nil {
		return 0, fmt.Errorf("price: %w", err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("price %s: %w", perToken, ErrNegativePrice)
	}
	f, _ := d.Mul(million).Round(PriceDecimals).Float64()
	return f, nil
}
