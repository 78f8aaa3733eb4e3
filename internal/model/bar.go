package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV period as delivered by the ingestion adapters.
// A NaN Volume means the source had none.
type Bar struct {
	Symbol string
	Time   time.Time // period start (UTC)
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// barWire is the JSON layout. Missing volume is omitted rather than NaN,
// which encoding/json rejects.
type barWire struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *float64  `json:"volume,omitempty"`
}

func (b Bar) MarshalJSON() ([]byte, error) {
	w := barWire{Symbol: b.Symbol, Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	if !math.IsNaN(b.Volume) {
		v := b.Volume
		w.Volume = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a bar; an absent or null volume becomes NaN.
func (b *Bar) UnmarshalJSON(data []byte) error {
	var w barWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Bar{Symbol: w.Symbol, Time: w.Time, Open: w.Open, High: w.High, Low: w.Low, Close: w.Close, Volume: math.NaN()}
	if w.Volume != nil {
		b.Volume = *w.Volume
	}
	return nil
}

// JSON returns the JSON-encoded bar. Non-finite prices fail to encode.
func (b *Bar) JSON() ([]byte, error) {
	out, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bar %s@%d: %w", b.Symbol, b.Time.Unix(), err)
	}
	return out, nil
}
