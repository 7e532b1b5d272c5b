package domain

import "time"

// OrderStatus is the fixed lifecycle of a laundry order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// validNext encodes the ordered progression plus the absorbing
// cancelled state, which is reachable only from pending.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusCompleted: true},
	StatusCompleted:  {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to
// another. Unknown statuses never transition.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further status change is possible.
func (s OrderStatus) IsTerminal() bool {
	return len(validNext[s]) == 0
}

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	PayWallet PaymentMethod = "wallet"
	PayCard   PaymentMethod = "card"
	PayCash   PaymentMethod = "cash"
)

// OrderService is one selected service line on an order.
type OrderService struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PricePerUnit float64 `json:"pricePerUnit"`
	Quantity     int     `json:"quantity"`
}

// Subtotal is price times quantity for this line.
func (s OrderService) Subtotal() float64 {
	return s.PricePerUnit * float64(s.Quantity)
}

// Order is a customer order as the backend reports it. Customers never
// mutate an order directly; they may only request cancellation while it
// is still pending.
type Order struct {
	ID                  string         `json:"id"`
	Services            []OrderService `json:"services"`
	DeliveryAddress     string         `json:"deliveryAddress"`
	DeliveryDate        string         `json:"deliveryDate"`
	DeliveryTime        string         `json:"deliveryTime"`
	PaymentMethod       PaymentMethod  `json:"paymentMethod"`
	SpecialInstructions string         `json:"specialInstructions,omitempty"`
	TotalAmount         float64        `json:"totalAmount"`
	Status              OrderStatus    `json:"status"`
	IsPaid              bool           `json:"isPaid"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// OrderDraft is the booking form as composed client-side, before the
// backend has assigned an id or verdict.
type OrderDraft struct {
	Services            []OrderService `json:"services"`
	DeliveryAddress     string         `json:"deliveryAddress"`
	DeliveryDate        string         `json:"deliveryDate"`
	DeliveryTime        string         `json:"deliveryTime"`
	PaymentMethod       PaymentMethod  `json:"paymentMethod"`
	SpecialInstructions string         `json:"specialInstructions,omitempty"`
}

// Total computes the draft's amount from its service lines.
func (d OrderDraft) Total() float64 {
	var total float64
	for _, s := range d.Services {
		total += s.Subtotal()
	}
	return total
}
