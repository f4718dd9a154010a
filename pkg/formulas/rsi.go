package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index over a price series
//
// RSI Formula:
//   RSI = 100 - (100 / (1 + RS))
//   where RS = Average Gain / Average Loss over N periods
//
// Returns the latest RSI value (0-100), or 0 when the series is shorter
// than period+1 observations.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}

	rsi := talib.Rsi(closes, period)
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return 0
	}

	return last
}
