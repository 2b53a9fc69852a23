package core

import (
	"context"
	"time"
)

// BookServiceRequest books a professional services work order. Service
// bundles are the work itself; materials and mart items are consumed from
// stock at booking time.
type BookServiceRequest struct {
	CompanyCode string
	Services    []ItemRequest
	Materials   []ItemRequest
	MartItems   []ItemRequest
	CouponCode  string
	Customer    *Customer
	Payment     *Payment
	Notes       string
}

// WorkOrderService books services work orders. Their lifecycle is driven by TransactionService.
type WorkOrderService interface {
	BookService(ctx context.Context, req BookServiceRequest) (*Transaction, error)
}

type workOrderService struct {
	store Store
}

func NewWorkOrderService(store Store) WorkOrderService {
	return &workOrderService{store: store}
}

func (s *workOrderService) BookService(ctx context.Context, req BookServiceRequest) (*Transaction, error) {
	if len(req.Services) == 0 {
		return nil, invalid("services", "at least one service is required")
	}
	if req.Customer == nil || req.Customer.Name == "" {
		return nil, invalid("customer.name", "customer name is required for a work order")
	}

	var result *Transaction
	err := s.store.InTx(ctx, func(r Repos) error {
		company, err := resolveCompany(ctx, r, req.CompanyCode)
		if err != nil {
			return err
		}
		if err := requireModule(company, ModuleServices); err != nil {
			return err
		}

		services, err := resolveItems(ctx, r, company.ID, req.Services, KindService)
		if err != nil {
			return err
		}
		materials, err := resolveItems(ctx, r, company.ID, req.Materials, KindMaterial)
		if err != nil {
			return err
		}
		mart, err := resolveItems(ctx, r, company.ID, req.MartItems, KindProduct)
		if err != nil {
			return err
		}

		items := make([]LineItem, 0, len(services)+len(materials)+len(mart))
		items = append(items, services...)
		items = append(items, materials...)
		items = append(items, mart...)

		t, err := commitBooking(ctx, r, booking{
			company:    company,
			module:     ModuleServices,
			status:     StatusPending,
			items:      items,
			couponCode: req.CouponCode,
			customer:   req.Customer,
			payment:    req.Payment,
			notes:      req.Notes,
		}, time.Now().UTC())
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
