package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

const (
	ordersPath       = "/api/order/all/users"
	defaultMessage   = "Failed to fetch orders"
	maxErrorBodySize = 64 << 10
)

// BackendError is a failed orders request. Message is what the backend said, when it said anything.
type BackendError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Source queries the storefront backend over HTTP.
type Source struct {
	baseURL string
	client  *http.Client
}

// NewSource builds a source for the backend at baseURL. A nil client uses http.DefaultClient.
func NewSource(baseURL string, client *http.Client) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *Source) Query(ctx context.Context, credential string, q domain.ReportQuery) (ports.OrderPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+ordersPath+"?"+encodeQuery(q), nil)
	if err != nil {
		return ports.OrderPage{}, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.OrderPage{}, &BackendError{Message: defaultMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ports.OrderPage{}, decodeError(resp)
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.OrderPage{}, &BackendError{
			StatusCode: resp.StatusCode,
			Message:    defaultMessage,
			Err:        fmt.Errorf("decode orders response: %w", err),
		}
	}

	orders := make([]domain.Order, 0, len(body.Data))
	for _, dto := range body.Data {
		orders = append(orders, dto.toDomain())
	}

	return ports.OrderPage{Orders: orders, TotalPages: body.TotalPages}, nil
}

func encodeQuery(q domain.ReportQuery) string {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.SortKey != "" {
		params.Set("sort", q.SortKey)
	}
	if q.SortOrder != "" {
		params.Set("order", q.SortOrder)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if !q.Range.Start.IsZero() {
		params.Set("startDate", q.Range.Start.Format(domain.DateLayout))
	}
	if !q.Range.End.IsZero() {
		params.Set("endDate", q.Range.End.Format(domain.DateLayout))
	}
	params.Set("limit", strconv.Itoa(q.PageLimit))
	return params.Encode()
}

func decodeError(resp *http.Response) error {
	backendErr := &BackendError{
		StatusCode: resp.StatusCode,
		Message:    defaultMessage,
		Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return backendErr
	}

	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Message) != "" {
		backendErr.Message = body.Message
	}
	return backendErr
}

type pageResponse struct {
	Data       []orderDTO `json:"data"`
	TotalPages int        `json:"totalPages"`
}

type orderDTO struct {
	ID          string          `json:"_id"`
	User        json.RawMessage `json:"userId"`
	Products    []itemDTO       `json:"products"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	OrderDate   time.Time       `json:"orderDate"`
}

type userDTO struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type itemDTO struct {
	Product  json.RawMessage     `json:"productId"`
	Price    decimal.NullDecimal `json:"price"`
	Quantity int                 `json:"quantity"`
	Color    string              `json:"color"`
}

type productDTO struct {
	ID    string              `json:"_id"`
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
}

func (o orderDTO) toDomain() domain.Order {
	order := domain.Order{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		Status:      domain.OrderStatus(o.Status),
		OrderedAt:   o.OrderDate,
		Items:       make([]domain.LineItem, 0, len(o.Products)),
	}

	// userId is a populated object, null, or a bare id when population was skipped.
	var user userDTO
	if isObject(o.User) && json.Unmarshal(o.User, &user) == nil {
		order.Customer = &domain.Customer{
			Username: user.Username,
			Email:    user.Email,
			Phone:    user.Phone,
			Address:  user.Address,
		}
	}

	for _, item := range o.Products {
		order.Items = append(order.Items, item.toDomain())
	}

	return order
}

func (i itemDTO) toDomain() domain.LineItem {
	item := domain.LineItem{
		Quantity: i.Quantity,
		Variant:  i.Color,
	}

	var product productDTO
	if isObject(i.Product) && json.Unmarshal(i.Product, &product) == nil {
		item.Product = &domain.Product{ID: product.ID, Name: product.Name}
		if product.Price.Valid {
			item.Product.Price = product.Price.Decimal
		}
	}

	switch {
	case i.Price.Valid:
		item.UnitPrice = i.Price.Decimal
	case item.Product != nil:
		item.UnitPrice = item.Product.Price
	}

	return item
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}
