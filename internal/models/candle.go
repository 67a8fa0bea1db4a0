// internal/models/candle.go
package models

// Candle is one daily OHLC point in a price series.
type Candle struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}
