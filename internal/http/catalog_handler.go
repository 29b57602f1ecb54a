package http

import (
	"context"
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	AddAddress(ctx context.Context, userID string, address *domain.Address) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, address *domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
	logger  *zap.Logger
}

func NewCatalogHandler(catalog CatalogService, timeout time.Duration, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout, logger: logger}
}

type AddProductRequestDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Description []string `json:"description"`
	Price       int64    `json:"price" validate:"gt=0"`
	OfferPrice  int64    `json:"offerPrice" validate:"gt=0,ltefield=Price"`
	Stock       int      `json:"stock" validate:"gte=0"`
}

type productView struct {
	*domain.Product
	InStock       bool    `json:"inStock"`
	AverageRating float64 `json:"averageRating"`
}

func viewProduct(p *domain.Product) productView {
	return productView{Product: p, InStock: p.InStock(), AverageRating: p.AverageRating()}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, viewProduct(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, viewProduct(product))
}

func (h *CatalogHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddProductRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	product, err := h.catalog.AddProduct(ctx, &domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		OfferPrice:  req.OfferPrice,
		Stock:       req.Stock,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewProduct(product))
}

type AddAddressRequestDTO struct {
	Address domain.Address `json:"address"`
}

func (h *CatalogHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req AddAddressRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	address, err := h.catalog.AddAddress(ctx, uid, &req.Address)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, address)
}

func (h *CatalogHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	addresses, err := h.catalog.ListAddresses(ctx, uid)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}

func (h *CatalogHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req AddAddressRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	address, err := h.catalog.UpdateAddress(ctx, uid, chi.URLParam(r, "id"), &req.Address)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, address)
}

func (h *CatalogHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteAddress(ctx, uid, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
