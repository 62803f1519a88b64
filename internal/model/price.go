package model

// PriceRow is one historical price observation for a token.
type PriceRow struct {
	Symbol       string  `json:"symbol"`
	TokenAddress string  `json:"token_address"`
	Timestamp    int64   `json:"timestamp"`
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
}

// ReferencePrice is the per-day price summary of the reference asset.
type ReferencePrice struct {
	Date                    string  `json:"date"`
	Symbol                  string  `json:"symbol"`
	TokenAddress            string  `json:"token_address"`
	Timestamp               int64   `json:"timestamp"`
	Price                   float64 `json:"price"`
	StartPrice              float64 `json:"start_price"`
	ChangeInPriceUSD        float64 `json:"change_in_price_usd"`
	ChangeInPricePercentage float64 `json:"change_in_price_percentage"`
}
