package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusAwaiting   OrderStatus = "Menunggu Konfirmasi"
	StatusProcessing OrderStatus = "Diproses"
	StatusCompleted  OrderStatus = "Selesai"
	StatusCancelled  OrderStatus = "Dibatalkan"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []OrderStatus{StatusAwaiting, StatusProcessing, StatusCompleted, StatusCancelled}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusAwaiting, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ProductSnapshot is the product as it was embedded into an order.
type ProductSnapshot struct {
	Title        string          `json:"title"`
	Brand        string          `json:"brand"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	PhotoDisplay string          `json:"photoDisplay"`
}

type OrderCustomer struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
}

type Order struct {
	ID        string          `json:"_id"`
	Product   ProductSnapshot `json:"product"`
	User      OrderCustomer   `json:"user"`
	Quantity  int             `json:"quantity"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Total is the product price times the ordered quantity.
func (o Order) Total() decimal.Decimal {
	return o.Product.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

type Product struct {
	ID           string          `json:"_id"`
	Title        string          `json:"title"`
	Brand        string          `json:"brand"`
	Description  string          `json:"description"`
	Color        string          `json:"color,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	PhotoDisplay string          `json:"photoDisplay"`
	PhotoDetails []string        `json:"photoDetails"`
}

type Customer struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	WhatsApp  string    `json:"whatsapp"`
	CreatedAt time.Time `json:"createdAt"`
}

// Admin identifies the logged-in administrator of a browser session.
type Admin struct {
	Username  string
	Subject   string
	LoginAt   time.Time
	ExpiresAt time.Time
}

// Actor names the admin in the activity log and in published events: the
// username, followed by the account id from the token when there is one.
func (a Admin) Actor() string {
	if a.Subject == "" || a.Subject == a.Username {
		return a.Username
	}
	return a.Username + " (" + a.Subject + ")"
}

// Activity is one entry of the local order activity log.
type Activity struct {
	ID        int64
	OrderID   string
	Action    string
	FromState OrderStatus
	ToState   OrderStatus
	Actor     string
	CreatedAt time.Time
}
