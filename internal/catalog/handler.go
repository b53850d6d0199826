// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the catalog routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)
	r.Get("/sellers/{sellerID}/products", h.handleListSellerProducts)
	r.Post("/sellers/{sellerID}/products", h.handleAddProduct)
	r.Post("/sellers/{sellerID}/bundles", h.handleAddBundle)
	r.Post("/sellers/{sellerID}/products/{productID}/discount", h.handleApplyDiscount)
	r.Put("/sellers/{sellerID}/products/{productID}", h.handleUpdateProduct)
	r.Delete("/sellers/{sellerID}/products/{productID}", h.handleRemoveProduct)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidDiscountRate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSellerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Price        decimal.Decimal `json:"price"`
		InvoicePrice decimal.Decimal `json:"invoicePrice"`
		Quantity     int             `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.AddProduct(r.Context(), chi.URLParam(r, "sellerID"), ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		InvoicePrice: req.InvoicePrice,
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

func (h *Handler) handleAddBundle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		ProductIDs  []string `json:"productIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bundle, err := h.service.AddBundle(r.Context(), chi.URLParam(r, "sellerID"), req.Name, req.Description, req.ProductIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bundle)
}

func (h *Handler) handleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	discounted, err := h.service.ApplyDiscount(r.Context(), chi.URLParam(r, "sellerID"), chi.URLParam(r, "productID"), req.Rate)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(discounted)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Price        decimal.Decimal `json:"price"`
		InvoicePrice decimal.Decimal `json:"invoicePrice"`
		Quantity     int             `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "sellerID"), chi.URLParam(r, "productID"), ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		InvoicePrice: req.InvoicePrice,
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(p)
}

func (h *Handler) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveProduct(r.Context(), chi.URLParam(r, "sellerID"), chi.URLParam(r, "productID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(p)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(products)
}

func (h *Handler) handleListSellerProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListSellerProducts(r.Context(), chi.URLParam(r, "sellerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(products)
}
