package memory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

type demoCustomer struct {
	username, email, phone, address string
}

var demoCustomers = []demoCustomer{
	{"dana", "dana@example.com", "+1 555 0100", "12 Main St, Springfield"},
	{"marko", "marko@example.com", "+381 11 555 010", "Knez Mihailova 5, Belgrade"},
	{"محمد", "mohammed@example.com", "+966 11 555 0101", "شارع الملك فهد، الرياض"},
	{"נועה", "noa@example.com", "+972 3 555 0102", "רחוב הרצל 12, תל אביב"},
	{"li.wei", "li@example.com", "", ""},
}

var demoProducts = []domain.Product{
	{ID: "prod-lamp", Name: "Desk Lamp", Price: decimal.RequireFromString("34.90")},
	{ID: "prod-mug", Name: "Ceramic Mug", Price: decimal.RequireFromString("12.50")},
	{ID: "prod-rug", Name: "سجادة صلاة", Price: decimal.RequireFromString("45.00")},
	{ID: "prod-chair", Name: "Oak Chair", Price: decimal.RequireFromString("129.00")},
}

// DemoOrders generates a deterministic set of orders spread over the weeks
// before now, for running the exporter without a backend.
func DemoOrders(now time.Time, count int) []domain.Order {
	orders := make([]domain.Order, 0, count)
	for i := 0; i < count; i++ {
		c := demoCustomers[i%len(demoCustomers)]
		customer := &domain.Customer{Username: optional(c.username), Email: optional(c.email), Phone: optional(c.phone), Address: optional(c.address)}

		var items []domain.LineItem
		total := decimal.Zero
		for n := 0; n <= i%3; n++ {
			product := demoProducts[(i+n)%len(demoProducts)]
			item := domain.LineItem{Product: &product, UnitPrice: product.Price, Quantity: n + 1}
			if n%2 == 1 {
				item.Variant = "Blue"
			}
			items = append(items, item)
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		orders = append(orders, domain.Order{
			ID:          fmt.Sprintf("65f1a2b3c4d5e6f7a8b9%04d", i),
			Customer:    customer,
			Items:       items,
			TotalAmount: total,
			Status:      domain.Statuses[i%len(domain.Statuses)],
			OrderedAt:   now.Add(-time.Duration(i) * 26 * time.Hour).UTC(),
		})
	}
	return orders
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
