package model

import "time"

// MilkRecord is one delivery. Date uses DateLayout.
type MilkRecord struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date"`
	Quantity      float64 `json:"quantity"`
	PricePerLitre float64 `json:"pricePerLitre"`
}

type MilkVendorList struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Records   []MilkRecord `json:"records"`
	CreatedAt time.Time    `json:"createdAt"`
}

// MilkMonthTotal aggregates one vendor's deliveries for a calendar month.
type MilkMonthTotal struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Litres  float64    `json:"litres"`
	Amount  float64    `json:"amount"`
	Records int        `json:"records"`
}
