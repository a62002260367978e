package handler

import (
	"net/http"

	models "sweet-shop/model"
	"sweet-shop/validate"
)

type sweetMessage struct {
	Message string       `json:"message"`
	Sweet   models.Sweet `json:"sweet"`
}

// CreateSweet handles POST /sweets
func (h *Handler) CreateSweet(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := validate.Sweet(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sw, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sw)
}

// ListSweets handles GET /sweets
func (h *Handler) ListSweets(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweets)
}

// SearchSweets handles GET /sweets/search?name=&category=&minPrice=&maxPrice=
func (h *Handler) SearchSweets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := models.SearchParams{
		Name:     q.Get("name"),
		Category: q.Get("category"),
		MinPrice: validate.OptionalFloat(q.Get("minPrice")),
		MaxPrice: validate.OptionalFloat(q.Get("maxPrice")),
	}
	sweets, err := h.svc.Search(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweets)
}

// GetSweet handles GET /sweets/{id}
func (h *Handler) GetSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sw, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sw)
}

// UpdateSweet handles PUT /sweets/{id}; only the fields sent are changed.
func (h *Handler) UpdateSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patch, err := validate.SweetPatch(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sw, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sw)
}

// DeleteSweet handles DELETE /sweets/{id}
func (h *Handler) DeleteSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sw, err := h.svc.Remove(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweetMessage{Message: "Sweet deleted", Sweet: sw})
}

// PurchaseSweet handles POST /sweets/{id}/purchase for the calling user.
func (h *Handler) PurchaseSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller := mustIdentity(r)
	sw, err := h.svc.Purchase(r.Context(), caller.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweetMessage{Message: "Purchase successful", Sweet: sw})
}

// RestockSweet handles POST /sweets/{id}/restock
// body: { "quantity": 10 }
func (h *Handler) RestockSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qty, err := validate.Quantity(raw["quantity"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sw, err := h.svc.Restock(r.Context(), id, qty)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweetMessage{Message: "Restock successful", Sweet: sw})
}
