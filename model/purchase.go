package models

import "time"

type Purchase struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	SweetID      int64     `json:"sweet_id"`
	Quantity     int       `json:"quantity"`
	PurchaseDate time.Time `json:"purchase_date"`
}
