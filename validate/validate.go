// Package validate checks raw request payloads before they reach the
// inventory operations. Payloads are JSON objects decoded with UseNumber.
package validate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"sweet-shop/apperror"
	models "sweet-shop/model"
)

const MinPasswordLength = 6

// Sweet validates a full sweet payload. Fields are checked in the order
// name, category, price, stock and the first failure is returned.
func Sweet(raw map[string]any) (models.SweetInput, error) {
	var in models.SweetInput

	name, ok := nonEmptyString(raw["name"])
	if !ok {
		return in, apperror.Validation("name", "Name is required")
	}
	category, ok := nonEmptyString(raw["category"])
	if !ok {
		return in, apperror.Validation("category", "Category is required")
	}
	price, ok := nonNegativeNumber(raw["price"])
	if !ok {
		return in, apperror.Validation("price", "Valid price is required")
	}
	stock, ok := integer(raw["stock"])
	if !ok || stock < 0 {
		return in, apperror.Validation("stock", "Valid stock is required")
	}

	in = models.SweetInput{Name: name, Category: category, Price: price, Stock: stock}
	if d, ok := raw["description"].(string); ok {
		in.Description = d
	}
	return in, nil
}

// SweetPatch validates a partial payload. Only present keys are checked, with
// the same rules and order as Sweet.
func SweetPatch(raw map[string]any) (models.SweetPatch, error) {
	var p models.SweetPatch

	if v, present := raw["name"]; present {
		name, ok := nonEmptyString(v)
		if !ok {
			return p, apperror.Validation("name", "Name is required")
		}
		p.Name = &name
	}
	if v, present := raw["category"]; present {
		category, ok := nonEmptyString(v)
		if !ok {
			return p, apperror.Validation("category", "Category is required")
		}
		p.Category = &category
	}
	if v, present := raw["price"]; present {
		price, ok := nonNegativeNumber(v)
		if !ok {
			return p, apperror.Validation("price", "Valid price is required")
		}
		p.Price = &price
	}
	if v, present := raw["stock"]; present {
		stock, ok := integer(v)
		if !ok || stock < 0 {
			return p, apperror.Validation("stock", "Valid stock is required")
		}
		p.Stock = &stock
	}
	if v, present := raw["description"]; present {
		d, ok := v.(string)
		if !ok {
			return p, apperror.Validation("description", "Valid description is required")
		}
		p.Description = &d
	}
	return p, nil
}

// Credentials checks email before password.
func Credentials(raw map[string]any) (email, password string, err error) {
	email, _ = raw["email"].(string)
	if email == "" || !strings.Contains(email, "@") {
		return "", "", apperror.Validation("email", "Valid email is required")
	}
	password, _ = raw["password"].(string)
	if len(password) < MinPasswordLength {
		return "", "", apperror.Validation("password", "Password must be at least 6 characters")
	}
	return email, password, nil
}

// Role reads the optional role field. Absent or null means the default role
// and is returned as "".
func Role(raw map[string]any) (models.Role, error) {
	v, present := raw["role"]
	if !present || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok || (s != "" && !models.Role(s).Valid()) {
		return "", apperror.Validation("role", "Valid role is required")
	}
	return models.Role(s), nil
}

// Quantity parses a restock quantity, which must be an integer > 0.
func Quantity(v any) (int, error) {
	q, ok := integer(v)
	if !ok || q <= 0 {
		return 0, apperror.Validation("quantity", "Valid quantity is required")
	}
	return q, nil
}

// ID parses a path identifier.
func ID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("id", "Invalid sweet ID")
	}
	return id, nil
}

// OptionalFloat parses a query value; blank or malformed input yields nil.
func OptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nonNegativeNumber(v any) (float64, bool) {
	f, ok := number(v)
	if !ok || f < 0 {
		return 0, false
	}
	return f, true
}

// integer accepts whole numbers only; 3.0 is fine, 3.5 is not.
func integer(v any) (int, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
