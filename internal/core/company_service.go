package core

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// RegisterCompanyRequest registers a new tenant together with its owner account.
type RegisterCompanyRequest struct {
	Name             string
	OwnerName        string
	Email            string
	Phone            string
	Address          string
	BaseCurrency     string
	Modules          []ModuleTag
	OpeningCapital   decimal.Decimal
	DrawingThreshold decimal.Decimal
	OwnerUsername    string
	OwnerPassword    string
}

// UpdateCompanyRequest changes a company's profile. Empty strings leave fields unchanged.
type UpdateCompanyRequest struct {
	CompanyCode      string
	Name             string
	OwnerName        string
	Email            string
	Phone            string
	Address          string
	Modules          []ModuleTag
	DrawingThreshold *decimal.Decimal
}

// CompanyService registers and maintains tenants.
type CompanyService interface {
	Register(ctx context.Context, req RegisterCompanyRequest) (*Company, *User, error)
	Get(ctx context.Context, companyCode string) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	Update(ctx context.Context, req UpdateCompanyRequest) (*Company, error)
}

type companyService struct {
	store Store
}

func NewCompanyService(store Store) CompanyService {
	return &companyService{store: store}
}

func validateModules(modules []ModuleTag) error {
	for _, m := range modules {
		if !m.Valid() {
			return invalid("modules", "unknown module %q", m)
		}
	}
	return nil
}

func (s *companyService) Register(ctx context.Context, req RegisterCompanyRequest) (*Company, *User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, invalid("name", "company name is required")
	}
	if strings.TrimSpace(req.OwnerUsername) == "" {
		return nil, nil, invalid("owner_username", "owner username is required")
	}
	if len(req.OwnerPassword) < 8 {
		return nil, nil, invalid("owner_password", "password must be at least 8 characters")
	}
	if req.OpeningCapital.IsNegative() {
		return nil, nil, invalid("opening_capital", "opening capital must not be negative")
	}
	if req.DrawingThreshold.IsNegative() {
		return nil, nil, invalid("drawing_threshold", "drawing threshold must not be negative")
	}
	if err := validateModules(req.Modules); err != nil {
		return nil, nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.BaseCurrency))
	if currency == "" {
		currency = "USD"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	company := &Company{
		ID:               uuid.NewString(),
		Name:             name,
		OwnerName:        strings.TrimSpace(req.OwnerName),
		Email:            strings.TrimSpace(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		Address:          strings.TrimSpace(req.Address),
		BaseCurrency:     currency,
		Modules:          req.Modules,
		DrawingThreshold: req.DrawingThreshold,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	owner := &User{
		ID:           uuid.NewString(),
		CompanyID:    company.ID,
		Username:     strings.TrimSpace(req.OwnerUsername),
		Email:        company.Email,
		PasswordHash: string(hash),
		Role:         RoleOwner,
		IsActive:     true,
		CreatedAt:    now,
	}

	err = s.store.InTx(ctx, func(r Repos) error {
		code, err := uniqueCompanyCode(ctx, r, name)
		if err != nil {
			return err
		}
		company.CompanyCode = code

		if err := r.Companies().Create(ctx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := r.Users().Create(ctx, owner); err != nil {
			return fmt.Errorf("failed to create owner user: %w", err)
		}
		if err := r.Wallets().Create(ctx, &Wallet{CompanyID: company.ID, Balance: decimal.Zero, UpdatedAt: now}); err != nil {
			return fmt.Errorf("failed to create capital wallet: %w", err)
		}
		if req.OpeningCapital.IsPositive() {
			_, err := r.Wallets().Apply(ctx, &WalletEntry{
				CompanyID: company.ID,
				Direction: DirectionIn,
				Amount:    req.OpeningCapital,
				Reason:    ReasonOpening,
			})
			if err != nil {
				return fmt.Errorf("failed to record opening capital: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return company, owner, nil
}

// uniqueCompanyCode derives a short code from the company name and appends a
// random suffix until it does not collide with an existing company.
func uniqueCompanyCode(ctx context.Context, r Repos, name string) (string, error) {
	prefix := codePrefix(name)
	for attempt := 0; attempt < 5; attempt++ {
		code := prefix + "-" + randomSuffix(4)
		_, err := r.Companies().GetByCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check company code: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate a unique company code for %q", name)
}

func codePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
		if b.Len() == 4 {
			break
		}
	}
	if b.Len() == 0 {
		return "CMP"
	}
	return b.String()
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf)
}

func (s *companyService) Get(ctx context.Context, companyCode string) (*Company, error) {
	return resolveCompany(ctx, s.store, companyCode)
}

func (s *companyService) List(ctx context.Context) ([]Company, error) {
	companies, err := s.store.Companies().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *companyService) Update(ctx context.Context, req UpdateCompanyRequest) (*Company, error) {
	if err := validateModules(req.Modules); err != nil {
		return nil, err
	}
	if req.DrawingThreshold != nil && req.DrawingThreshold.IsNegative() {
		return nil, invalid("drawing_threshold", "drawing threshold must not be negative")
	}

	var result *Company
	err := s.store.InTx(ctx, func(r Repos) error {
		c, err := resolveCompany(ctx, r, req.CompanyCode)
		if err != nil {
			return err
		}
		if v := strings.TrimSpace(req.Name); v != "" {
			c.Name = v
		}
		if v := strings.TrimSpace(req.OwnerName); v != "" {
			c.OwnerName = v
		}
		if v := strings.TrimSpace(req.Email); v != "" {
			c.Email = v
		}
		if v := strings.TrimSpace(req.Phone); v != "" {
			c.Phone = v
		}
		if v := strings.TrimSpace(req.Address); v != "" {
			c.Address = v
		}
		if req.Modules != nil {
			c.Modules = req.Modules
		}
		if req.DrawingThreshold != nil {
			c.DrawingThreshold = *req.DrawingThreshold
		}
		c.UpdatedAt = time.Now().UTC()
		if err := r.Companies().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update company %s: %w", c.CompanyCode, err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
