package handler

import (
	"net/http"

	"sweet-shop/validate"
)

// Register handles POST /auth/register
// body: { "email": "...", "password": "...", "role": "ADMIN" }
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	email, password, err := validate.Credentials(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	role, err := validate.Role(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.Register(r.Context(), email, password, role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	email, password, err := validate.Credentials(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.accounts.Login(r.Context(), email, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
