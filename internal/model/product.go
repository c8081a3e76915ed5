package model

import "github.com/dukerupert/lifemate/internal/i18n"

type Category struct {
	ID       int64             `json:"id"`
	Name     i18n.Translations `json:"name"`
	ParentID int64             `json:"parentId,omitempty"`
}

type Product struct {
	ID         int64             `json:"id"`
	Name       i18n.Translations `json:"name"`
	CategoryID int64             `json:"categoryId"`
	Unit       Unit              `json:"unit"`
	Price      float64           `json:"price"`
}

type UnitOption struct {
	Value Unit              `json:"value"`
	Label i18n.Translations `json:"label"`
}

type ZodiacSign struct {
	ID   string            `json:"id"`
	Name i18n.Translations `json:"name"`
}
