package web

import (
	"net/http"
	"strconv"
	"time"

	"retail-suite/internal/app"
	"retail-suite/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type catalogEntryBody struct {
	Kind           core.CatalogKind `json:"kind"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	UnitCost       decimal.Decimal  `json:"unit_cost"`
	TracksStock    bool             `json:"tracks_stock"`
	OpeningStock   int              `json:"opening_stock"`
	Rate           decimal.Decimal  `json:"rate"`
	RateUnit       core.RateUnit    `json:"rate_unit"`
	Margin         decimal.Decimal  `json:"margin"`
	QuotaPerPeriod decimal.Decimal  `json:"quota_per_period"`
	IsActive       *bool            `json:"is_active"`
}

func (b catalogEntryBody) input(code string) core.CatalogEntryInput {
	return core.CatalogEntryInput{
		CompanyCode:    code,
		Kind:           b.Kind,
		SKU:            b.SKU,
		Name:           b.Name,
		UnitPrice:      b.UnitPrice,
		UnitCost:       b.UnitCost,
		TracksStock:    b.TracksStock,
		OpeningStock:   b.OpeningStock,
		Rate:           b.Rate,
		RateUnit:       b.RateUnit,
		Margin:         b.Margin,
		QuotaPerPeriod: b.QuotaPerPeriod,
		IsActive:       b.IsActive,
	}
}

// apiListCatalog handles GET /api/companies/{code}/catalog.
// Query: kind?, active=true?, available=true?, low_stock_at?
func (h *Handler) apiListCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.CatalogFilter{
		Kind:          core.CatalogKind(q.Get("kind")),
		ActiveOnly:    q.Get("active") == "true",
		AvailableOnly: q.Get("available") == "true",
	}
	if v := q.Get("low_stock_at"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "low_stock_at must be an integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.LowStockAt = &n
	}

	result, err := h.svc.ListCatalog(r.Context(), companyCode(r), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateCatalogEntry handles POST /api/companies/{code}/catalog.
func (h *Handler) apiCreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	var body catalogEntryBody
	if !decodeJSON(w, r, &body) {
		return
	}
	entry, err := h.svc.CreateCatalogEntry(r.Context(), body.input(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, entry)
}

// apiGetCatalogEntry handles GET /api/companies/{code}/catalog/{id}.
func (h *Handler) apiGetCatalogEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.GetCatalogEntry(r.Context(), companyCode(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// apiUpdateCatalogEntry handles PUT /api/companies/{code}/catalog/{id}.
// Stock levels are changed through restock and sales, never by update.
func (h *Handler) apiUpdateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	var body catalogEntryBody
	if !decodeJSON(w, r, &body) {
		return
	}
	entry, err := h.svc.UpdateCatalogEntry(r.Context(), chi.URLParam(r, "id"), body.input(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// apiDeleteCatalogEntry handles DELETE /api/companies/{code}/catalog/{id}.
func (h *Handler) apiDeleteCatalogEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCatalogEntry(r.Context(), companyCode(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiRestock handles POST /api/companies/{code}/catalog/{id}/restock.
// Body: { quantity, unit_cost? }
func (h *Handler) apiRestock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int             `json:"quantity"`
		UnitCost decimal.Decimal `json:"unit_cost"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.Restock(r.Context(), core.RestockRequest{
		CompanyCode: companyCode(r),
		EntryID:     chi.URLParam(r, "id"),
		Quantity:    body.Quantity,
		UnitCost:    body.UnitCost,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListCoupons handles GET /api/companies/{code}/coupons.
func (h *Handler) apiListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.ListCoupons(r.Context(), companyCode(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, coupons)
}

// apiCreateCoupon handles POST /api/companies/{code}/coupons.
// Body: { code, amount, expires_at? }
func (h *Handler) apiCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code      string          `json:"code"`
		Amount    decimal.Decimal `json:"amount"`
		ExpiresAt *time.Time      `json:"expires_at"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	coupon, err := h.svc.CreateCoupon(r.Context(), app.CreateCouponRequest{
		CompanyCode: companyCode(r),
		Code:        body.Code,
		Amount:      body.Amount,
		ExpiresAt:   body.ExpiresAt,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, coupon)
}

// apiValidateCoupon handles GET /api/companies/{code}/coupons/validate/{coupon}.
func (h *Handler) apiValidateCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.svc.ValidateCoupon(r.Context(), companyCode(r), chi.URLParam(r, "coupon"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, coupon)
}

// apiDeleteCoupon handles DELETE /api/companies/{code}/coupons/{id}.
func (h *Handler) apiDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCoupon(r.Context(), companyCode(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
