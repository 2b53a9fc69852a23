package web

import (
	"net/http"

	"retail-suite/internal/app"
	"retail-suite/internal/core"

	"github.com/shopspring/decimal"
)

// apiRegisterCompany handles POST /api/companies.
// Body: { name, owner_name, email?, phone?, address?, base_currency?, modules?,
// opening_capital?, drawing_threshold?, owner_username, owner_password }
func (h *Handler) apiRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name             string           `json:"name"`
		OwnerName        string           `json:"owner_name"`
		Email            string           `json:"email"`
		Phone            string           `json:"phone"`
		Address          string           `json:"address"`
		BaseCurrency     string           `json:"base_currency"`
		Modules          []core.ModuleTag `json:"modules"`
		OpeningCapital   decimal.Decimal  `json:"opening_capital"`
		DrawingThreshold decimal.Decimal  `json:"drawing_threshold"`
		OwnerUsername    string           `json:"owner_username"`
		OwnerPassword    string           `json:"owner_password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.RegisterCompany(r.Context(), core.RegisterCompanyRequest{
		Name:             body.Name,
		OwnerName:        body.OwnerName,
		Email:            body.Email,
		Phone:            body.Phone,
		Address:          body.Address,
		BaseCurrency:     body.BaseCurrency,
		Modules:          body.Modules,
		OpeningCapital:   body.OpeningCapital,
		DrawingThreshold: body.DrawingThreshold,
		OwnerUsername:    body.OwnerUsername,
		OwnerPassword:    body.OwnerPassword,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiGetCompany handles GET /api/companies/{code}.
func (h *Handler) apiGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.GetCompany(r.Context(), companyCode(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, company)
}

// apiUpdateCompany handles PUT /api/companies/{code}.
func (h *Handler) apiUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name             string           `json:"name"`
		OwnerName        string           `json:"owner_name"`
		Email            string           `json:"email"`
		Phone            string           `json:"phone"`
		Address          string           `json:"address"`
		Modules          []core.ModuleTag `json:"modules"`
		DrawingThreshold *decimal.Decimal `json:"drawing_threshold"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	company, err := h.svc.UpdateCompany(r.Context(), core.UpdateCompanyRequest{
		CompanyCode:      companyCode(r),
		Name:             body.Name,
		OwnerName:        body.OwnerName,
		Email:            body.Email,
		Phone:            body.Phone,
		Address:          body.Address,
		Modules:          body.Modules,
		DrawingThreshold: body.DrawingThreshold,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, company)
}

// apiListUsers handles GET /api/companies/{code}/users.
func (h *Handler) apiListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), companyCode(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, users)
}

// apiCreateUser handles POST /api/companies/{code}/users.
func (h *Handler) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	role := core.Role(body.Role)
	if role == "" {
		role = core.RoleCashier
	}

	user, err := h.svc.CreateUser(r.Context(), app.CreateUserRequest{
		CompanyCode: companyCode(r),
		Username:    body.Username,
		Email:       body.Email,
		Password:    body.Password,
		Role:        role,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}
