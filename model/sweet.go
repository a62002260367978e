package models

import "time"

type Sweet struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SweetInput carries the validated fields of a new sweet.
type SweetInput struct {
	Name        string
	Category    string
	Price       float64
	Stock       int
	Description string
}

// SweetPatch is a partial update. Nil fields keep their stored value.
type SweetPatch struct {
	Name        *string
	Category    *string
	Price       *float64
	Stock       *int
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Stock == nil && p.Description == nil
}

// SearchParams is a conjunctive filter; nil or empty fields match everything.
type SearchParams struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}
