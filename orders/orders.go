package orders

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/pkg/errors"
)

type PaymentType int

const (
	PaymentVNPay PaymentType = iota
	PaymentCOD
)

type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentPaid
	PaymentFailed
)

type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusShipping
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusShipping:
		return "shipping"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Detail is one order line.
type Detail struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Customer identifies who the order is for.
type Customer struct {
	Email       string
	UserName    string
	PhoneNumber string
}

type Order struct {
	Email         string        `json:"email"`
	PhoneNumber   string        `json:"phone_number"`
	UserName      string        `json:"user_name"`
	PaymentType   PaymentType   `json:"payment_type"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        Status        `json:"status"`
	TotalAmount   float64       `json:"total_amount"`
	Note          string        `json:"note,omitempty"`
	Details       []Detail      `json:"order_details"`
}

// NewOrder builds a pending VNPay order for customer. A zero quantity counts as one
// and the total is derived from the lines.
func NewOrder(customer Customer, note string, details []Detail) (*Order, error) {
	if len(details) == 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[NewOrder] an order needs at least one product")
	}

	lines := make([]Detail, len(details))
	for i, d := range details {
		if d.Quantity < 0 {
			return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "[NewOrder] negative quantity for %s", d.ProductID)
		}
		if d.Quantity == 0 {
			d.Quantity = 1
		}
		lines[i] = d
	}

	return &Order{
		Email:         customer.Email,
		PhoneNumber:   customer.PhoneNumber,
		UserName:      customer.UserName,
		PaymentType:   PaymentVNPay,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		TotalAmount:   Total(lines),
		Note:          note,
		Details:       lines,
	}, nil
}

// Total sums price times quantity, counting a zero quantity as one.
func Total(details []Detail) float64 {
	var sum float64
	for _, d := range details {
		qty := d.Quantity
		if qty == 0 {
			qty = 1
		}
		sum += d.Price * float64(qty)
	}
	return sum
}

// API is the part of apiclient.Client the orders service needs.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
}

var _ API = (*apiclient.Client)(nil)

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Create posts order and decodes whatever the server echoes into out, which may be nil.
func (s *Service) Create(ctx context.Context, order *Order, out any) error {
	if order == nil {
		return errors.Wrap(apperrors.ErrInvalidRequest, "[Service.Create] order is nil")
	}
	if err := s.api.Post(ctx, apiclient.RouteOrders, order, out); err != nil {
		return errors.Wrap(err, "[Service.Create]")
	}
	return nil
}
