package trade

import "time"

// Row is one record from a trading export, immutable once read.
// Rows handed to the segmenter must be sorted by Time ascending.
type Row struct {
	Time     time.Time
	Label    string
	Price    float64
	Quantity float64
	PnL      *float64
}

// Notional returns the position value of the row before leverage.
func (r Row) Notional() float64 {
	return r.Price * r.Quantity
}
