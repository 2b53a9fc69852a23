package web

import (
	"net/http"

	"retail-suite/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiGetCapital handles GET /api/companies/{code}/capital?limit=.
func (h *Handler) apiGetCapital(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	stmt, err := h.svc.GetCapital(r.Context(), companyCode(r), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stmt)
}

// apiMoveCapital handles POST /api/companies/{code}/capital/{kind}
// where kind is deposit, withdraw or expense. Body: { amount, note? }
func (h *Handler) apiMoveCapital(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	wallet, err := h.svc.MoveCapital(r.Context(), app.CapitalMovementRequest{
		CompanyCode: companyCode(r),
		Kind:        app.CapitalMovementKind(chi.URLParam(r, "kind")),
		Amount:      body.Amount,
		Note:        body.Note,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, wallet)
}

// apiSalesSummary handles GET /api/companies/{code}/reports/sales?from=&to=.
func (h *Handler) apiSalesSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := queryRange(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.SalesSummary(r.Context(), companyCode(r), from, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// apiTopItems handles GET /api/companies/{code}/reports/top-items?from=&to=&limit=.
func (h *Handler) apiTopItems(w http.ResponseWriter, r *http.Request) {
	from, to, ok := queryRange(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	items, err := h.svc.TopItems(r.Context(), companyCode(r), from, to, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// apiLowStock handles GET /api/companies/{code}/reports/low-stock?threshold=.
func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", 5)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	entries, err := h.svc.LowStock(r.Context(), companyCode(r), threshold)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// apiDrawings handles GET /api/companies/{code}/reports/drawings.
func (h *Handler) apiDrawings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.DrawingEntries(r.Context(), companyCode(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// apiDashboard handles GET /api/companies/{code}/reports/dashboard?from=&to=&low_stock_at=.
func (h *Handler) apiDashboard(w http.ResponseWriter, r *http.Request) {
	from, to, ok := queryRange(w, r)
	if !ok {
		return
	}
	lowStockAt, err := queryInt(r, "low_stock_at", 5)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	dash, err := h.svc.Dashboard(r.Context(), companyCode(r), from, to, lowStockAt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, dash)
}
