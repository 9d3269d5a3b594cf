package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"confirmo-gateway/internal/auditlog"
	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/confirmo"
	"confirmo-gateway/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) FindOrder(ctx context.Context, id uint) (*order.Order, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderStore) SetStatus(ctx context.Context, o *order.Order, status order.Status, note string) error {
	args := m.Called(ctx, o, status, note)
	return args.Error(0)
}

func (m *MockOrderStore) FinalizePayment(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderStore) SetRedirectURL(ctx context.Context, o *order.Order, url string) error {
	args := m.Called(ctx, o, url)
	return args.Error(0)
}

func (m *MockOrderStore) ReduceStock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderStore) EmptyCart(ctx context.Context, customerID uint) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateInvoice(ctx context.Context, apiKey string, req *confirmo.InvoiceRequest) (*confirmo.Invoice, error) {
	args := m.Called(ctx, apiKey, req)
	if inv, ok := args.Get(0).(*confirmo.Invoice); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) GetInvoice(ctx context.Context, apiKey string, invoiceID string) (*confirmo.Invoice, error) {
	args := m.Called(ctx, apiKey, invoiceID)
	if inv, ok := args.Get(0).(*confirmo.Invoice); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Load(ctx context.Context) (*config.Settings, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(*config.Settings); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSettingsStore) Save(ctx context.Context, s *config.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type MockAudit struct {
	entries []auditlog.Entry
}

func (m *MockAudit) Insert(ctx context.Context, orderID *uint, apiResponse, hook string) error {
	m.entries = append(m.entries, auditlog.Entry{OrderID: orderID, APIResponse: apiResponse, Hook: hook})
	return nil
}

func (m *MockAudit) List(ctx context.Context) ([]auditlog.Entry, error) { return m.entries, nil }
func (m *MockAudit) DeleteAll(ctx context.Context) error                { return nil }
func (m *MockAudit) ExportCSV(ctx context.Context, w io.Writer) error   { return nil }
func (m *MockAudit) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:         100,
		CustomerID: 7,
		Email:      "buyer@example.com",
		Currency:   "EUR",
		Total:      decimal.RequireFromString("50.00"),
		Status:     order.StatusPending,
		Billing: order.BillingProfile{
			Name:    "Jan Novak",
			Street:  "Na Prikope 1",
			City:    "Praha",
			Zip:     "11000",
			Country: "CZ",
		},
		Items: []order.Item{
			{Name: "Widget", Quantity: 2, Price: decimal.RequireFromString("20.00")},
			{Name: "Gadget", Quantity: 1, Price: decimal.RequireFromString("10.00")},
		},
	}
}

func testSettings() *config.Settings {
	return &config.Settings{
		Enabled:            true,
		APIKey:             "key",
		SettlementCurrency: "USD",
		StatusMap:          config.DefaultStatusMap(),
	}
}

const (
	notifyURL = "https://shop.example/confirmo/webhook"
	returnURL = "https://shop.example/thank-you"
)

func TestService_Pay(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		orders := new(MockOrderStore)
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(orders, client, settings, audit, notifyURL, returnURL)

		o := testOrder()
		settings.On("Load", mock.Anything).Return(testSettings(), nil)
		orders.On("FindOrder", mock.Anything, uint(100)).Return(o, nil)

		inv := &confirmo.Invoice{
			ID:     "inv_1",
			URL:    "https://pay.example/abc",
			Status: confirmo.StatusPrepared,
			Raw:    json.RawMessage(`{"url":"https://pay.example/abc","id":"inv_1"}`),
		}
		client.On("CreateInvoice", mock.Anything, "key", mock.MatchedBy(func(req *confirmo.InvoiceRequest) bool {
			return req.Settlement != nil &&
				req.Settlement.Currency == "USD" &&
				req.Invoice.CurrencyFrom == "EUR" &&
				req.Invoice.Amount.Equal(decimal.RequireFromString("50.00")) &&
				req.Reference == "100" &&
				req.Product.Name == "Widget + Gadget" &&
				req.Product.Description == "Widget (2) + Gadget (1)" &&
				req.CustomerEmail == "buyer@example.com" &&
				req.NotificationURL == notifyURL &&
				req.ReturnURL == returnURL
		})).Return(inv, nil)

		orders.On("SetRedirectURL", mock.Anything, o, "https://pay.example/abc").Return(nil)
		orders.On("SetStatus", mock.Anything, o, order.StatusPending, "Awaiting Confirmo payment.").Return(nil)
		orders.On("ReduceStock", mock.Anything, o).Return(nil)
		orders.On("EmptyCart", mock.Anything, uint(7)).Return(nil)

		url, err := svc.Pay(context.Background(), 100)

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/abc", url)
		orders.AssertExpectations(t)
		client.AssertExpectations(t)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, "process_payment", audit.entries[0].Hook)
	})

	t.Run("InKindSettlementOmitsBlock", func(t *testing.T) {
		orders := new(MockOrderStore)
		client := new(MockClient)
		settings := new(MockSettingsStore)
		svc := NewService(orders, client, settings, new(MockAudit), notifyURL, returnURL)

		o := testOrder()
		s := testSettings()
		s.SettlementCurrency = config.SettlementInKind
		settings.On("Load", mock.Anything).Return(s, nil)
		orders.On("FindOrder", mock.Anything, uint(100)).Return(o, nil)

		client.On("CreateInvoice", mock.Anything, "key", mock.MatchedBy(func(req *confirmo.InvoiceRequest) bool {
			return req.Settlement == nil
		})).Return(&confirmo.Invoice{ID: "inv_1", URL: "https://pay.example/abc"}, nil)

		orders.On("SetRedirectURL", mock.Anything, o, mock.Anything).Return(nil)
		orders.On("SetStatus", mock.Anything, o, order.StatusPending, mock.Anything).Return(nil)
		orders.On("ReduceStock", mock.Anything, o).Return(nil)
		orders.On("EmptyCart", mock.Anything, uint(7)).Return(nil)

		_, err := svc.Pay(context.Background(), 100)

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("TransportFailureDoesNotMutateOrder", func(t *testing.T) {
		orders := new(MockOrderStore)
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(orders, client, settings, audit, notifyURL, returnURL)

		o := testOrder()
		settings.On("Load", mock.Anything).Return(testSettings(), nil)
		orders.On("FindOrder", mock.Anything, uint(100)).Return(o, nil)
		client.On("CreateInvoice", mock.Anything, "key", mock.Anything).
			Return(nil, errors.New("connection refused"))

		_, err := svc.Pay(context.Background(), 100)

		assert.ErrorIs(t, err, ErrPaymentFailed)
		orders.AssertNotCalled(t, "SetRedirectURL", mock.Anything, mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "ReduceStock", mock.Anything, mock.Anything)
		assert.Len(t, audit.entries, 1)
	})

	t.Run("MissingURLDoesNotMutateOrder", func(t *testing.T) {
		orders := new(MockOrderStore)
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(orders, client, settings, audit, notifyURL, returnURL)

		o := testOrder()
		settings.On("Load", mock.Anything).Return(testSettings(), nil)
		orders.On("FindOrder", mock.Anything, uint(100)).Return(o, nil)

		inv := &confirmo.Invoice{ID: "inv_1", Raw: json.RawMessage(`{"id":"inv_1"}`)}
		client.On("CreateInvoice", mock.Anything, "key", mock.Anything).
			Return(inv, confirmo.ErrMissingURL)

		_, err := svc.Pay(context.Background(), 100)

		assert.ErrorIs(t, err, ErrPaymentFailed)
		orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		// The raw response is preserved for diagnosis.
		require.Len(t, audit.entries, 1)
		assert.Equal(t, `{"id":"inv_1"}`, audit.entries[0].APIResponse)
	})

	t.Run("DisabledGatewayRefuses", func(t *testing.T) {
		orders := new(MockOrderStore)
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(orders, client, settings, audit, notifyURL, returnURL)

		s := testSettings()
		s.Enabled = false
		settings.On("Load", mock.Anything).Return(s, nil)

		url, err := svc.Pay(context.Background(), 100)

		assert.ErrorIs(t, err, ErrGatewayDisabled)
		assert.Empty(t, url)
		orders.AssertNotCalled(t, "FindOrder", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "SetRedirectURL", mock.Anything, mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "ReduceStock", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "EmptyCart", mock.Anything, mock.Anything)
		client.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, audit.entries)
	})

	t.Run("OrderNotFound", func(t *testing.T) {
		orders := new(MockOrderStore)
		settings := new(MockSettingsStore)
		svc := NewService(orders, new(MockClient), settings, new(MockAudit), notifyURL, returnURL)

		settings.On("Load", mock.Anything).Return(testSettings(), nil)
		orders.On("FindOrder", mock.Anything, uint(404)).Return(nil, order.ErrNotFound)

		_, err := svc.Pay(context.Background(), 404)

		assert.ErrorIs(t, err, order.ErrNotFound)
	})
}

func TestService_CustomPay(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(new(MockOrderStore), client, settings, audit, notifyURL, returnURL)

		settings.On("Load", mock.Anything).Return(testSettings(), nil)

		inv := &confirmo.Invoice{
			ID:  "inv_9",
			URL: "https://pay.example/custom",
			Raw: json.RawMessage(`{"url":"https://pay.example/custom","id":"inv_9"}`),
		}
		client.On("CreateInvoice", mock.Anything, "key", mock.MatchedBy(func(req *confirmo.InvoiceRequest) bool {
			return req.Settlement != nil &&
				req.Settlement.Currency == "CZK" &&
				req.Invoice.CurrencyFrom == "CZK" &&
				req.Invoice.Amount.Equal(decimal.RequireFromString("250")) &&
				req.Reference == "custom-button-payment" &&
				req.Product.Name == "Custom Payment" &&
				req.Product.Description == "Payment via Confirmo Button" &&
				req.NotificationURL == notifyURL &&
				req.ReturnURL == returnURL
		})).Return(inv, nil)

		url, err := svc.CustomPay(context.Background(), "CZK", decimal.RequireFromString("250"))

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/custom", url)
		client.AssertExpectations(t)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, "create_payment", audit.entries[0].Hook)
		assert.Nil(t, audit.entries[0].OrderID)
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		client := new(MockClient)
		settings := new(MockSettingsStore)
		svc := NewService(new(MockOrderStore), client, settings, new(MockAudit), notifyURL, returnURL)

		s := testSettings()
		s.APIKey = ""
		settings.On("Load", mock.Anything).Return(s, nil)

		_, err := svc.CustomPay(context.Background(), "EUR", decimal.RequireFromString("10"))

		assert.ErrorIs(t, err, ErrNotConfigured)
		client.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CreateFailureLogged", func(t *testing.T) {
		client := new(MockClient)
		settings := new(MockSettingsStore)
		audit := new(MockAudit)
		svc := NewService(new(MockOrderStore), client, settings, audit, notifyURL, returnURL)

		settings.On("Load", mock.Anything).Return(testSettings(), nil)
		client.On("CreateInvoice", mock.Anything, "key", mock.Anything).
			Return(nil, errors.New("connection refused"))

		_, err := svc.CustomPay(context.Background(), "EUR", decimal.RequireFromString("10"))

		assert.ErrorIs(t, err, ErrPaymentFailed)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, "create_payment", audit.entries[0].Hook)
	})
}
