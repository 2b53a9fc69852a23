package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"retail-suite/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options configures NewHandler.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	log       *zap.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log *zap.Logger, opts Options) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	h := &Handler{
		svc:       svc,
		log:       log,
		jwtSecret: opts.JWTSecret,
		tokenTTL:  opts.TokenTTL,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
		r.Post("/api/companies", h.apiRegisterCompany)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Route("/api/companies/{code}", func(r chi.Router) {
			r.Use(h.RequireCompany)

			r.Get("/", h.apiGetCompany)
			r.With(h.RequireOwner).Put("/", h.apiUpdateCompany)
			r.Get("/users", h.apiListUsers)
			r.With(h.RequireOwner).Post("/users", h.apiCreateUser)

			// ── Catalog ──────────────────────────────────────────────────────
			r.Get("/catalog", h.apiListCatalog)
			r.Post("/catalog", h.apiCreateCatalogEntry)
			r.Get("/catalog/{id}", h.apiGetCatalogEntry)
			r.Put("/catalog/{id}", h.apiUpdateCatalogEntry)
			r.Delete("/catalog/{id}", h.apiDeleteCatalogEntry)
			r.With(h.RequireOwner).Post("/catalog/{id}/restock", h.apiRestock)

			r.Get("/coupons", h.apiListCoupons)
			r.Post("/coupons", h.apiCreateCoupon)
			r.Get("/coupons/validate/{coupon}", h.apiValidateCoupon)
			r.Delete("/coupons/{id}", h.apiDeleteCoupon)

			// ── Selling ──────────────────────────────────────────────────────
			r.Post("/checkout/quote", h.apiQuoteCheckout)
			r.Post("/checkout", h.apiCheckout)
			r.Post("/rentals/quote", h.apiQuoteRental)
			r.Post("/rentals", h.apiCreateRental)
			r.Get("/subscriptions", h.apiListSubscriptions)
			r.Post("/subscriptions", h.apiSubscribe)
			r.Get("/subscriptions/{id}", h.apiGetSubscription)
			r.Post("/subscriptions/{id}/usage", h.apiRecordUsage)
			r.Post("/work-orders", h.apiBookService)

			// ── Transaction lifecycle ────────────────────────────────────────
			r.Get("/transactions", h.apiListTransactions)
			r.Get("/transactions/{ref}", h.apiGetTransaction)
			r.Post("/transactions/{ref}/start", h.apiStartTransaction)
			r.Post("/transactions/{ref}/complete", h.apiCompleteTransaction)
			r.Post("/transactions/{ref}/cancel", h.apiCancelTransaction)
			r.With(h.RequireOwner).Post("/transactions/{ref}/reverse", h.apiReverseTransaction)

			// ── Capital & reports ────────────────────────────────────────────
			r.Get("/capital", h.apiGetCapital)
			r.With(h.RequireOwner).Post("/capital/{kind}", h.apiMoveCapital)
			r.Get("/reports/sales", h.apiSalesSummary)
			r.Get("/reports/top-items", h.apiTopItems)
			r.Get("/reports/low-stock", h.apiLowStock)
			r.Get("/reports/drawings", h.apiDrawings)
			r.Get("/reports/dashboard", h.apiDashboard)
		})
	})

	h.router = r
	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company,omitempty"`
	}

	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// queryTime parses a date (2006-01-02) or RFC 3339 query parameter. A bare
// date used as the end of a range covers the whole day.
func queryTime(r *http.Request, name string, endOfRange bool) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		if endOfRange {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339", name)
	}
	return t, nil
}

// queryRange reads the from/to period of a report.
func queryRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	var err error
	if from, err = queryTime(r, "from", false); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return from, to, false
	}
	if to, err = queryTime(r, "to", true); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return from, to, false
	}
	return from, to, true
}
