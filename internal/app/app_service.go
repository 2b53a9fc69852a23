package app

import (
	"context"
	"fmt"
	"time"

	"retail-suite/internal/core"
	"retail-suite/internal/events"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type appService struct {
	store          core.Store
	companies      core.CompanyService
	users          core.UserService
	catalog        core.CatalogService
	coupons        core.CouponService
	checkout       core.CheckoutService
	rentals        core.RentalService
	laundry        core.LaundryService
	workOrders     core.WorkOrderService
	transactions   core.TransactionService
	capital        core.CapitalService
	reports        core.ReportingService
	publisher      events.Publisher
	log            *zap.Logger
	defaultCompany string
}

// NewAppService wires the core services over store. Lifecycle events are sent
// to publisher after each successful unit of work.
func NewAppService(store core.Store, publisher events.Publisher, log *zap.Logger, defaultCompany string) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(log)
	}
	return &appService{
		store:          store,
		companies:      core.NewCompanyService(store),
		users:          core.NewUserService(store),
		catalog:        core.NewCatalogService(store),
		coupons:        core.NewCouponService(store),
		checkout:       core.NewCheckoutService(store),
		rentals:        core.NewRentalService(store),
		laundry:        core.NewLaundryService(store),
		workOrders:     core.NewWorkOrderService(store),
		transactions:   core.NewTransactionService(store),
		capital:        core.NewCapitalService(store),
		reports:        core.NewReportingService(store),
		publisher:      publisher,
		log:            log,
		defaultCompany: defaultCompany,
	}
}

// publish sends e and logs a failure. The business operation has already committed.
func (s *appService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("company_code", e.CompanyCode),
			zap.String("subject", e.Subject),
			zap.Error(err),
		)
	}
}

func transactionPayload(t *core.Transaction) map[string]any {
	return map[string]any{
		"transaction_id": t.ID,
		"module":         string(t.Module),
		"status":         string(t.Status),
		"total":          core.FormatMoney(t.TotalAmount),
		"profit":         core.FormatMoney(t.Profit),
	}
}

func (s *appService) publishTransaction(ctx context.Context, typ events.Type, companyCode string, t *core.Transaction) {
	s.publish(ctx, events.New(typ, companyCode, t.Number, transactionPayload(t)))
}

// ── Companies & users ───────────────────────────────────────────────────────

func (s *appService) RegisterCompany(ctx context.Context, req core.RegisterCompanyRequest) (*CompanyResult, error) {
	company, owner, err := s.companies.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("company registered", zap.String("company_code", company.CompanyCode), zap.String("name", company.Name))
	s.publish(ctx, events.New(events.CompanyRegistered, company.CompanyCode, company.ID, map[string]any{
		"name":            company.Name,
		"opening_capital": core.FormatMoney(req.OpeningCapital),
	}))
	return &CompanyResult{Company: company, Owner: userResult(owner, company.CompanyCode)}, nil
}

func (s *appService) GetCompany(ctx context.Context, companyCode string) (*core.Company, error) {
	return s.companies.Get(ctx, companyCode)
}

func (s *appService) UpdateCompany(ctx context.Context, req core.UpdateCompanyRequest) (*core.Company, error) {
	return s.companies.Update(ctx, req)
}

// LoadDefaultCompany loads the active company, using the configured code if set.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if s.defaultCompany != "" {
		return s.companies.Get(ctx, s.defaultCompany)
	}
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(companies) {
	case 0:
		return nil, fmt.Errorf("no company registered yet: %w", core.ErrNotFound)
	case 1:
		return &companies[0], nil
	default:
		return nil, fmt.Errorf("%d companies registered; set COMPANY_CODE to choose one", len(companies))
	}
}

func (s *appService) AuthenticateUser(ctx context.Context, companyCode, username, password string) (*UserSession, error) {
	u, company, err := s.users.Authenticate(ctx, companyCode, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{
		UserID:      u.ID,
		CompanyID:   company.ID,
		CompanyCode: company.CompanyCode,
		Username:    u.Username,
		Role:        string(u.Role),
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID string) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	company, err := s.store.Companies().Get(ctx, u.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company of user %s: %w", userID, err)
	}
	return userResult(u, company.CompanyCode), nil
}

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error) {
	u, err := s.users.CreateUser(ctx, req.CompanyCode, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	return userResult(u, req.CompanyCode), nil
}

func (s *appService) ListUsers(ctx context.Context, companyCode string) ([]UserResult, error) {
	users, err := s.users.ListUsers(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	out := make([]UserResult, 0, len(users))
	for i := range users {
		out = append(out, *userResult(&users[i], companyCode))
	}
	return out, nil
}

// ── Catalog ─────────────────────────────────────────────────────────────────

func (s *appService) CreateCatalogEntry(ctx context.Context, in core.CatalogEntryInput) (*core.CatalogEntry, error) {
	return s.catalog.CreateEntry(ctx, in)
}

func (s *appService) GetCatalogEntry(ctx context.Context, companyCode, id string) (*core.CatalogEntry, error) {
	return s.catalog.GetEntry(ctx, companyCode, id)
}

func (s *appService) ListCatalog(ctx context.Context, companyCode string, filter core.CatalogFilter) (*CatalogListResult, error) {
	entries, err := s.catalog.ListEntries(ctx, companyCode, filter)
	if err != nil {
		return nil, err
	}
	return &CatalogListResult{CompanyCode: companyCode, Entries: entries}, nil
}

func (s *appService) UpdateCatalogEntry(ctx context.Context, id string, in core.CatalogEntryInput) (*core.CatalogEntry, error) {
	return s.catalog.UpdateEntry(ctx, id, in)
}

func (s *appService) DeleteCatalogEntry(ctx context.Context, companyCode, id string) error {
	return s.catalog.DeleteEntry(ctx, companyCode, id)
}

func (s *appService) Restock(ctx context.Context, req core.RestockRequest) (*RestockResult, error) {
	entry, wallet, err := s.catalog.Restock(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.StockRestocked, req.CompanyCode, entry.ID, map[string]any{
		"quantity":         req.Quantity,
		"quantity_on_hand": entry.QuantityOnHand,
		"balance":          core.FormatMoney(wallet.Balance),
	}))
	return &RestockResult{Entry: entry, Wallet: wallet}, nil
}

// ── Coupons ─────────────────────────────────────────────────────────────────

func (s *appService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*core.Coupon, error) {
	return s.coupons.CreateCoupon(ctx, req.CompanyCode, req.Code, req.Amount, req.ExpiresAt)
}

func (s *appService) ListCoupons(ctx context.Context, companyCode string) ([]core.Coupon, error) {
	return s.coupons.ListCoupons(ctx, companyCode)
}

func (s *appService) DeleteCoupon(ctx context.Context, companyCode, id string) error {
	return s.coupons.DeleteCoupon(ctx, companyCode, id)
}

func (s *appService) ValidateCoupon(ctx context.Context, companyCode, code string) (*core.Coupon, error) {
	return s.coupons.Validate(ctx, companyCode, code)
}

// ── Selling ─────────────────────────────────────────────────────────────────

func (s *appService) QuoteCheckout(ctx context.Context, req core.CheckoutRequest) (*QuoteResult, error) {
	q, err := s.checkout.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: q, Rounded: q.Settlement.Rounded()}, nil
}

func (s *appService) Checkout(ctx context.Context, req core.CheckoutRequest) (*TransactionResult, error) {
	t, err := s.checkout.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("checkout settled",
		zap.String("company_code", req.CompanyCode),
		zap.String("number", t.Number),
		zap.String("total", core.FormatMoney(t.TotalAmount)),
	)
	s.publishTransaction(ctx, events.TransactionSettled, req.CompanyCode, t)
	return transactionResult(t), nil
}

func (s *appService) QuoteRental(ctx context.Context, req core.RentalRequest) (*QuoteResult, error) {
	q, err := s.rentals.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: q, Rounded: q.Settlement.Rounded()}, nil
}

func (s *appService) CreateRental(ctx context.Context, req core.RentalRequest) (*TransactionResult, error) {
	t, err := s.rentals.CreateAgreement(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publishTransaction(ctx, events.TransactionSettled, req.CompanyCode, t)
	return transactionResult(t), nil
}

func (s *appService) Subscribe(ctx context.Context, req core.SubscribeRequest) (*SubscriptionResult, error) {
	sub, t, err := s.laundry.Subscribe(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publishTransaction(ctx, events.TransactionSettled, req.CompanyCode, t)
	s.publish(ctx, events.New(events.SubscriptionCreated, req.CompanyCode, sub.ID, map[string]any{
		"plan_id":  sub.PlanID,
		"quota_kg": sub.QuotaKg.String(),
		"ends_at":  sub.EndsAt,
	}))
	return &SubscriptionResult{Subscription: sub, Transaction: t, Rounded: t.Settlement().Rounded()}, nil
}

func (s *appService) RecordLaundryUsage(ctx context.Context, companyCode, subscriptionID string, kg decimal.Decimal) (*core.Subscription, error) {
	return s.laundry.RecordUsage(ctx, companyCode, subscriptionID, kg)
}

func (s *appService) GetSubscription(ctx context.Context, companyCode, id string) (*core.Subscription, error) {
	return s.laundry.GetSubscription(ctx, companyCode, id)
}

func (s *appService) ListSubscriptions(ctx context.Context, companyCode string, status core.SubscriptionStatus) ([]core.Subscription, error) {
	return s.laundry.ListSubscriptions(ctx, companyCode, status)
}

func (s *appService) BookService(ctx context.Context, req core.BookServiceRequest) (*TransactionResult, error) {
	t, err := s.workOrders.BookService(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publishTransaction(ctx, events.TransactionSettled, req.CompanyCode, t)
	return transactionResult(t), nil
}

// ── Transaction lifecycle ───────────────────────────────────────────────────

func (s *appService) GetTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error) {
	t, err := s.transactions.Get(ctx, companyCode, ref)
	if err != nil {
		return nil, err
	}
	return transactionResult(t), nil
}

func (s *appService) ListTransactions(ctx context.Context, companyCode string, filter core.TransactionFilter) (*TransactionListResult, error) {
	txs, err := s.transactions.List(ctx, companyCode, filter)
	if err != nil {
		return nil, err
	}
	return &TransactionListResult{CompanyCode: companyCode, Transactions: txs}, nil
}

func (s *appService) lifecycle(ctx context.Context, companyCode, ref string, typ events.Type,
	apply func(ctx context.Context, companyCode, ref string) (*core.Transaction, error)) (*TransactionResult, error) {
	t, err := apply(ctx, companyCode, ref)
	if err != nil {
		return nil, err
	}
	s.log.Info("transaction moved",
		zap.String("company_code", companyCode),
		zap.String("number", t.Number),
		zap.String("status", string(t.Status)),
	)
	s.publishTransaction(ctx, typ, companyCode, t)
	return transactionResult(t), nil
}

func (s *appService) StartTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error) {
	return s.lifecycle(ctx, companyCode, ref, events.TransactionStarted, s.transactions.Start)
}

func (s *appService) CompleteTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error) {
	return s.lifecycle(ctx, companyCode, ref, events.TransactionCompleted, s.transactions.Complete)
}

func (s *appService) CancelTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error) {
	return s.lifecycle(ctx, companyCode, ref, events.TransactionCancelled, s.transactions.Cancel)
}

func (s *appService) ReverseTransaction(ctx context.Context, companyCode, ref string) (*TransactionResult, error) {
	return s.lifecycle(ctx, companyCode, ref, events.TransactionReversed, s.transactions.Reverse)
}

// ── Capital ─────────────────────────────────────────────────────────────────

func (s *appService) GetCapital(ctx context.Context, companyCode string, limit int) (*core.CapitalStatement, error) {
	return s.reports.CapitalStatement(ctx, companyCode, limit)
}

func (s *appService) MoveCapital(ctx context.Context, req CapitalMovementRequest) (*core.Wallet, error) {
	var (
		w   *core.Wallet
		err error
	)
	switch req.Kind {
	case CapitalDeposit:
		w, err = s.capital.Deposit(ctx, req.CompanyCode, req.Amount, req.Note)
	case CapitalWithdraw:
		w, err = s.capital.Withdraw(ctx, req.CompanyCode, req.Amount, req.Note)
	case CapitalExpense:
		w, err = s.capital.RecordExpense(ctx, req.CompanyCode, req.Amount, req.Note)
	default:
		return nil, &core.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown capital movement %q", req.Kind)}
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.CapitalMoved, req.CompanyCode, string(req.Kind), map[string]any{
		"amount":  core.FormatMoney(req.Amount),
		"balance": core.FormatMoney(w.Balance),
	}))
	return w, nil
}

// ── Reports ─────────────────────────────────────────────────────────────────

func (s *appService) SalesSummary(ctx context.Context, companyCode string, from, to time.Time) (*core.SalesSummary, error) {
	return s.reports.SalesSummary(ctx, companyCode, from, to)
}

func (s *appService) TopItems(ctx context.Context, companyCode string, from, to time.Time, limit int) ([]core.ItemSales, error) {
	return s.reports.TopItems(ctx, companyCode, from, to, limit)
}

func (s *appService) LowStock(ctx context.Context, companyCode string, threshold int) ([]core.CatalogEntry, error) {
	return s.reports.LowStock(ctx, companyCode, threshold)
}

func (s *appService) DrawingEntries(ctx context.Context, companyCode string) ([]core.DrawingEntry, error) {
	return s.reports.DrawingEntries(ctx, companyCode)
}

func (s *appService) Dashboard(ctx context.Context, companyCode string, from, to time.Time, lowStockAt int) (*core.Dashboard, error) {
	return s.reports.Dashboard(ctx, companyCode, from, to, lowStockAt)
}

// ── Housekeeping ────────────────────────────────────────────────────────────

func (s *appService) ReleaseEndedRentals(ctx context.Context, now time.Time) (int, error) {
	return s.rentals.ReleaseEnded(ctx, now)
}

func (s *appService) ExpireSubscriptions(ctx context.Context, now time.Time) (int, error) {
	return s.laundry.ExpireEnded(ctx, now)
}

func (s *appService) ExpireCoupons(ctx context.Context, now time.Time) (int, error) {
	return s.coupons.ExpireDue(ctx, now)
}
