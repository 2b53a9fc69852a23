package web

import (
	"context"
	"net/http"
	"time"

	"retail-suite/internal/app"
	"retail-suite/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// saleBody carries the fields shared by every selling endpoint.
type saleBody struct {
	CouponCode string         `json:"coupon_code"`
	Customer   *core.Customer `json:"customer"`
	Payment    *core.Payment  `json:"payment"`
	Notes      string         `json:"notes"`
}

type checkoutBody struct {
	saleBody
	Items []core.ItemRequest `json:"items"`
}

func (b checkoutBody) request(code string) core.CheckoutRequest {
	return core.CheckoutRequest{
		CompanyCode: code,
		Items:       b.Items,
		CouponCode:  b.CouponCode,
		Customer:    b.Customer,
		Payment:     b.Payment,
		Notes:       b.Notes,
	}
}

// apiQuoteCheckout handles POST /api/companies/{code}/checkout/quote.
func (h *Handler) apiQuoteCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.QuoteCheckout(r.Context(), body.request(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCheckout handles POST /api/companies/{code}/checkout.
// Body: { items: [{entry_id, quantity}], coupon_code?, customer?, payment?, notes? }
func (h *Handler) apiCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.Checkout(r.Context(), body.request(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

type rentalBody struct {
	saleBody
	AssetID  string    `json:"asset_id"`
	Duration int       `json:"duration"`
	StartsAt time.Time `json:"starts_at"`
}

func (b rentalBody) request(code string) core.RentalRequest {
	return core.RentalRequest{
		CompanyCode: code,
		AssetID:     b.AssetID,
		Duration:    b.Duration,
		StartsAt:    b.StartsAt,
		CouponCode:  b.CouponCode,
		Customer:    b.Customer,
		Payment:     b.Payment,
		Notes:       b.Notes,
	}
}

// apiQuoteRental handles POST /api/companies/{code}/rentals/quote.
func (h *Handler) apiQuoteRental(w http.ResponseWriter, r *http.Request) {
	var body rentalBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.QuoteRental(r.Context(), body.request(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateRental handles POST /api/companies/{code}/rentals.
// Body: { asset_id, duration, starts_at?, coupon_code?, customer?, payment?, notes? }
func (h *Handler) apiCreateRental(w http.ResponseWriter, r *http.Request) {
	var body rentalBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateRental(r.Context(), body.request(companyCode(r)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiSubscribe handles POST /api/companies/{code}/subscriptions.
// Body: { plan_id, months, starts_at?, coupon_code?, customer?, payment? }
func (h *Handler) apiSubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saleBody
		PlanID   string    `json:"plan_id"`
		Months   int       `json:"months"`
		StartsAt time.Time `json:"starts_at"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.Subscribe(r.Context(), core.SubscribeRequest{
		CompanyCode: companyCode(r),
		PlanID:      body.PlanID,
		Months:      body.Months,
		StartsAt:    body.StartsAt,
		CouponCode:  body.CouponCode,
		Customer:    body.Customer,
		Payment:     body.Payment,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiListSubscriptions handles GET /api/companies/{code}/subscriptions?status=.
func (h *Handler) apiListSubscriptions(w http.ResponseWriter, r *http.Request) {
	status := core.SubscriptionStatus(r.URL.Query().Get("status"))
	subs, err := h.svc.ListSubscriptions(r.Context(), companyCode(r), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, subs)
}

// apiGetSubscription handles GET /api/companies/{code}/subscriptions/{id}.
func (h *Handler) apiGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.GetSubscription(r.Context(), companyCode(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sub)
}

// apiRecordUsage handles POST /api/companies/{code}/subscriptions/{id}/usage.
// Body: { kg }
func (h *Handler) apiRecordUsage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kg decimal.Decimal `json:"kg"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sub, err := h.svc.RecordLaundryUsage(r.Context(), companyCode(r), chi.URLParam(r, "id"), body.Kg)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sub)
}

// apiBookService handles POST /api/companies/{code}/work-orders.
// Body: { services: [...], materials?: [...], mart_items?: [...], coupon_code?, customer?, payment?, notes? }
func (h *Handler) apiBookService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saleBody
		Services  []core.ItemRequest `json:"services"`
		Materials []core.ItemRequest `json:"materials"`
		MartItems []core.ItemRequest `json:"mart_items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.BookService(r.Context(), core.BookServiceRequest{
		CompanyCode: companyCode(r),
		Services:    body.Services,
		Materials:   body.Materials,
		MartItems:   body.MartItems,
		CouponCode:  body.CouponCode,
		Customer:    body.Customer,
		Payment:     body.Payment,
		Notes:       body.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// ── Transaction lifecycle ─────────────────────────────────────────────────────

// apiListTransactions handles GET /api/companies/{code}/transactions.
// Query: module?, status?, from?, to?, limit?
func (h *Handler) apiListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, ok := queryRange(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	filter := core.TransactionFilter{
		Module: core.ModuleTag(r.URL.Query().Get("module")),
		Status: core.Status(r.URL.Query().Get("status")),
		Limit:  limit,
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}

	result, err := h.svc.ListTransactions(r.Context(), companyCode(r), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetTransaction handles GET /api/companies/{code}/transactions/{ref}.
func (h *Handler) apiGetTransaction(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetTransaction(r.Context(), companyCode(r), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type lifecycleFunc func(ctx context.Context, companyCode, ref string) (*app.TransactionResult, error)

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, move lifecycleFunc) {
	result, err := move(r.Context(), companyCode(r), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiStartTransaction handles POST /api/companies/{code}/transactions/{ref}/start.
func (h *Handler) apiStartTransaction(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.StartTransaction)
}

// apiCompleteTransaction handles POST /api/companies/{code}/transactions/{ref}/complete.
func (h *Handler) apiCompleteTransaction(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.CompleteTransaction)
}

// apiCancelTransaction handles POST /api/companies/{code}/transactions/{ref}/cancel.
func (h *Handler) apiCancelTransaction(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.CancelTransaction)
}

// apiReverseTransaction handles POST /api/companies/{code}/transactions/{ref}/reverse.
func (h *Handler) apiReverseTransaction(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.ReverseTransaction)
}
