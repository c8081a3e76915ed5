package model

import "time"

type Unit string

const (
	UnitKg     Unit = "kg"
	UnitGram   Unit = "g"
	UnitPieces Unit = "pcs"
	UnitLitre  Unit = "ltr"
	UnitPacket Unit = "packet"
)

type ShoppingListItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	CustomName    string  `json:"customName,omitempty"`
	Quantity      float64 `json:"quantity"`
	Unit          Unit    `json:"unit"`
	ExpectedPrice float64 `json:"expectedPrice"`
	ActualPrice   float64 `json:"actualPrice"`
	IsChecked     bool    `json:"isChecked"`
}

type ShoppingList struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Total sums the actual price of every item.
func (l ShoppingList) Total() float64 {
	var sum float64
	for _, it := range l.Items {
		sum += it.ActualPrice
	}
	return sum
}

// PurchasedTotal sums the actual price of checked items.
func (l ShoppingList) PurchasedTotal() float64 {
	var sum float64
	for _, it := range l.Items {
		if it.IsChecked {
			sum += it.ActualPrice
		}
	}
	return sum
}

// ShoppingListPatch carries the fields of a list update; nil fields are left alone.
type ShoppingListPatch struct {
	Name  *string             `json:"name,omitempty"`
	Items *[]ShoppingListItem `json:"items,omitempty"`
}

// ItemPatch carries the fields of an item update; nil fields are left alone.
type ItemPatch struct {
	Name          *string  `json:"name,omitempty"`
	CustomName    *string  `json:"customName,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Unit          *Unit    `json:"unit,omitempty"`
	ExpectedPrice *float64 `json:"expectedPrice,omitempty"`
	ActualPrice   *float64 `json:"actualPrice,omitempty"`
	IsChecked     *bool    `json:"isChecked,omitempty"`
}

// Expense is one line of the expense tracker before it becomes a list item.
type Expense struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      Unit    `json:"unit"`
	Price     float64 `json:"price"`
}
