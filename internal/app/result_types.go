package app

import "retail-suite/internal/core"

// CompanyResult is returned by RegisterCompany.
type CompanyResult struct {
	Company *core.Company `json:"company"`
	Owner   *UserResult   `json:"owner"`
}

// UserSession is the authenticated principal returned by AuthenticateUser.
type UserSession struct {
	UserID      string `json:"user_id"`
	CompanyID   string `json:"company_id"`
	CompanyCode string `json:"company_code"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// UserResult is a user profile without credentials.
type UserResult struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	CompanyCode string `json:"company_code,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// QuoteResult is a priced cart that has not been committed.
type QuoteResult struct {
	Quote   *core.Quote     `json:"quote"`
	Rounded core.Settlement `json:"rounded"`
}

// TransactionResult is returned by every operation that creates or moves a transaction.
type TransactionResult struct {
	Transaction *core.Transaction `json:"transaction"`
	Rounded     core.Settlement   `json:"rounded"`
}

// TransactionListResult is returned by ListTransactions.
type TransactionListResult struct {
	CompanyCode  string             `json:"company_code"`
	Transactions []core.Transaction `json:"transactions"`
}

// CatalogListResult is returned by ListCatalog.
type CatalogListResult struct {
	CompanyCode string              `json:"company_code"`
	Entries     []core.CatalogEntry `json:"entries"`
}

// RestockResult is returned by Restock.
type RestockResult struct {
	Entry  *core.CatalogEntry `json:"entry"`
	Wallet *core.Wallet       `json:"wallet"`
}

// SubscriptionResult is returned by Subscribe.
type SubscriptionResult struct {
	Subscription *core.Subscription `json:"subscription"`
	Transaction  *core.Transaction  `json:"transaction"`
	Rounded      core.Settlement    `json:"rounded"`
}

func transactionResult(t *core.Transaction) *TransactionResult {
	return &TransactionResult{Transaction: t, Rounded: t.Settlement().Rounded()}
}

func userResult(u *core.User, companyCode string) *UserResult {
	return &UserResult{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		CompanyCode: companyCode,
		IsActive:    u.IsActive,
	}
}
