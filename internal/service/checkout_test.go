package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/payment"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// --- Mock Repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Order, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, tenantID, status, reason string) error {
	args := m.Called(ctx, id, tenantID, status, reason)
	return args.Error(0)
}

func (m *mockOrderRepository) ConfirmPending(ctx context.Context, orderID, tenantID string) error {
	args := m.Called(ctx, orderID, tenantID)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Product, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Reserve(ctx context.Context, productID, tenantID string, quantity int) error {
	args := m.Called(ctx, productID, tenantID, quantity)
	return args.Error(0)
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, productID, tenantID string, delta int, reason string, referenceID *string) error {
	args := m.Called(ctx, productID, tenantID, delta, reason, referenceID)
	return args.Error(0)
}

// --- Payment and Event Stubs ---

type stubPaymentClient struct {
	mu            sync.Mutex
	authorizeOut  payment.Outcome
	cancelOut     payment.Outcome
	authorizeArgs []int64
	cancelCalls   int
}

func (s *stubPaymentClient) Authorize(_ context.Context, _, _, _ string, amount int64) payment.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizeArgs = append(s.authorizeArgs, amount)
	return s.authorizeOut
}

func (s *stubPaymentClient) Cancel(context.Context, string, string) payment.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelCalls++
	return s.cancelOut
}

func (s *stubPaymentClient) cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelCalls
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderConfirmed(context.Context, *domain.Order) error { return nil }
func (noopPublisher) PublishOrderCanceled(context.Context, *domain.Order, string) error {
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func authorizedPayment() *stubPaymentClient {
	return &stubPaymentClient{
		authorizeOut: payment.Outcome{Status: payment.StatusAuthorized},
		cancelOut:    payment.Outcome{Status: payment.StatusAuthorized},
	}
}

func newMockedService(orders *mockOrderRepository, products *mockProductRepository, pay PaymentClient) *CheckoutService {
	return NewCheckoutService(orders, products, pay, noopPublisher{}, newTestLogger(), "EUR")
}

// --- Validation Tests ---

func TestCheckout_RejectsEmptyItems(t *testing.T) {
	svc := newMockedService(&mockOrderRepository{}, &mockProductRepository{}, authorizedPayment())

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Checkout(context.Background(), "tenant-001", "buyer-001", nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCheckout_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newMockedService(&mockOrderRepository{}, &mockProductRepository{}, authorizedPayment())

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 0}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: -2}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCheckout_RejectsMissingTenantOrBuyer(t *testing.T) {
	svc := newMockedService(&mockOrderRepository{}, &mockProductRepository{}, authorizedPayment())
	input := &CheckoutInput{Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}}}

	_, err := svc.Checkout(context.Background(), "", "buyer-001", input)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Checkout(context.Background(), "tenant-001", "", input)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- Step 1 Tests ---

func TestCheckout_UnknownProductIsNotFound(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	products.On("GetByIDs", mock.Anything, []string{"prod-001"}).Return([]domain.Product{}, nil)

	svc := newMockedService(orders, products, authorizedPayment())

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_CrossTenantProductIsForbidden(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	products.On("GetByIDs", mock.Anything, []string{"prod-001"}).Return([]domain.Product{
		{ID: "prod-001", TenantID: "other-tenant", Price: 1000, Stock: 10},
	}, nil)

	svc := newMockedService(orders, products, authorizedPayment())

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_AggregatesDuplicateItemsAndSnapshotsPrice(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	pay := authorizedPayment()

	products.On("GetByIDs", mock.Anything, []string{"prod-001"}).Return([]domain.Product{
		{ID: "prod-001", TenantID: "tenant-001", Name: "Lab Kit", Price: 2500, Stock: 10},
	}, nil)

	var created *domain.Order
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)
	orders.On("ConfirmPending", mock.Anything, mock.Anything, "tenant-001").Return(nil)
	orders.On("GetByIDAndTenant", mock.Anything, mock.Anything, "tenant-001").
		Return(&domain.Order{Status: domain.OrderStatusConfirmed}, nil)

	svc := newMockedService(orders, products, pay)

	// The same product referenced twice gets merged into a single line.
	result, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{
			{ProductID: "prod-001", Quantity: 1},
			{ProductID: "prod-001", Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, result.Status)

	require.NotNil(t, created)
	require.Len(t, created.Items, 1)
	assert.Equal(t, 3, created.Items[0].Quantity)
	assert.Equal(t, int64(2500), created.Items[0].UnitPrice)
	assert.Equal(t, int64(7500), created.TotalAmount)

	// Payment was asked to authorize exactly the snapshotted total.
	require.Len(t, pay.authorizeArgs, 1)
	assert.Equal(t, int64(7500), pay.authorizeArgs[0])
}

// --- Step 2 Tests ---

func TestCheckout_PaymentDeclinedCancelsOrder(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	pay := &stubPaymentClient{
		authorizeOut: payment.Outcome{Status: payment.StatusFailed, Message: "card declined"},
	}

	products.On("GetByIDs", mock.Anything, mock.Anything).Return([]domain.Product{
		{ID: "prod-001", TenantID: "tenant-001", Price: 1000, Stock: 5},
	}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything).Return(nil)

	svc := newMockedService(orders, products, pay)

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	assert.True(t, errors.Is(err, apperrors.ErrPaymentDeclined))
	orders.AssertCalled(t, "UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything)
	orders.AssertNotCalled(t, "ConfirmPending", mock.Anything, mock.Anything, mock.Anything)
	// Nothing was authorized, so nothing is canceled at the provider.
	assert.Equal(t, 0, pay.cancels())
}

func TestCheckout_PaymentUnavailableCancelsOrder(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	pay := &stubPaymentClient{
		authorizeOut: payment.Outcome{Status: payment.StatusUnavailable},
	}

	products.On("GetByIDs", mock.Anything, mock.Anything).Return([]domain.Product{
		{ID: "prod-001", TenantID: "tenant-001", Price: 1000, Stock: 5},
	}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything).Return(nil)

	svc := newMockedService(orders, products, pay)

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	assert.True(t, errors.Is(err, apperrors.ErrPaymentUnavailable))
	orders.AssertCalled(t, "UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything)
}

// --- Step 3 Compensation Tests ---

func TestCheckout_ConfirmFailureTriggersPaymentCancellation(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	pay := authorizedPayment()

	products.On("GetByIDs", mock.Anything, mock.Anything).Return([]domain.Product{
		{ID: "prod-001", TenantID: "tenant-001", Price: 1000, Stock: 0},
	}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("ConfirmPending", mock.Anything, mock.Anything, "tenant-001").
		Return(apperrors.InsufficientStock("prod-001", 1, 0))
	orders.On("UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything).Return(nil)

	svc := newMockedService(orders, products, pay)

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	// The original failure surfaces, compensation happened on the way out.
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	assert.Equal(t, 1, pay.cancels())
	orders.AssertCalled(t, "UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything)
}

func TestCheckout_CompensationFailureDoesNotMaskOriginalError(t *testing.T) {
	orders := &mockOrderRepository{}
	products := &mockProductRepository{}
	pay := authorizedPayment()
	pay.cancelOut = payment.Outcome{Status: payment.StatusUnavailable}

	products.On("GetByIDs", mock.Anything, mock.Anything).Return([]domain.Product{
		{ID: "prod-001", TenantID: "tenant-001", Price: 1000, Stock: 0},
	}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("ConfirmPending", mock.Anything, mock.Anything, "tenant-001").
		Return(apperrors.InsufficientStock("prod-001", 1, 0))
	orders.On("UpdateStatus", mock.Anything, mock.Anything, "tenant-001", domain.OrderStatusCanceled, mock.Anything).
		Return(errors.New("db down"))

	svc := newMockedService(orders, products, pay)

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})

	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
}

// --- In-Memory Fake for Concurrency Scenarios ---

// fakeStore implements OrderRepository and ProductRepository with the same
// locking semantics as the database: check-and-decrement happens under one
// lock, so concurrent confirmations serialize.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	products map[string]*domain.Product
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[string]*domain.Order),
		products: make(map[string]*domain.Product),
	}
}

func (f *fakeStore) addProduct(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.products[p.ID] = &cp
}

func (f *fakeStore) productStock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeStore) setPrice(id string, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].Price = price
}

func (f *fakeStore) Create(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	cp.Items = append([]domain.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) GetByIDAndTenant(_ context.Context, id, tenantID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, apperrors.NotFound("order", id)
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, tenantID, status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.TenantID != tenantID {
		return apperrors.NotFound("order", id)
	}
	if o.Status != domain.OrderStatusPending {
		return apperrors.OrderNotPending(id)
	}
	o.Status = status
	o.CanceledReason = reason
	return nil
}

func (f *fakeStore) ConfirmPending(_ context.Context, orderID, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return apperrors.NotFound("order", orderID)
	}
	if o.Status != domain.OrderStatusPending {
		return apperrors.OrderNotPending(orderID)
	}

	items := append([]domain.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for _, item := range items {
		p, ok := f.products[item.ProductID]
		if !ok || p.TenantID != tenantID {
			return apperrors.NotFound("product", item.ProductID)
		}
		if p.Stock < item.Quantity {
			return apperrors.InsufficientStock(item.ProductID, item.Quantity, p.Stock)
		}
	}
	for _, item := range items {
		f.products[item.ProductID].Stock -= item.Quantity
	}

	o.Status = domain.OrderStatusConfirmed
	return nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *domain.Product) error {
	f.addProduct(*p)
	return nil
}

func (f *fakeStore) GetByIDAndTenantProduct(id, tenantID string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperrors.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) Reserve(_ context.Context, productID, tenantID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok || p.TenantID != tenantID {
		return apperrors.NotFound("product", productID)
	}
	if p.Stock < quantity {
		return apperrors.InsufficientStock(productID, quantity, p.Stock)
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeStore) AdjustStock(_ context.Context, productID, tenantID string, delta int, _ string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok || p.TenantID != tenantID {
		return apperrors.NotFound("product", productID)
	}
	if p.Stock+delta < 0 {
		return apperrors.InsufficientStock(productID, -delta, p.Stock)
	}
	p.Stock += delta
	return nil
}

// fakeProducts adapts fakeStore to repository.ProductRepository.
type fakeProducts struct{ *fakeStore }

func (f fakeProducts) Create(ctx context.Context, p *domain.Product) error {
	return f.CreateProduct(ctx, p)
}

func (f fakeProducts) GetByIDAndTenant(_ context.Context, id, tenantID string) (*domain.Product, error) {
	return f.GetByIDAndTenantProduct(id, tenantID)
}

func newFakeService(store *fakeStore, pay PaymentClient) *CheckoutService {
	return NewCheckoutService(store, fakeProducts{store}, pay, noopPublisher{}, newTestLogger(), "EUR")
}

// --- Concurrency and Persistence-Semantics Tests ---

func TestCheckout_LastUnitGoesToExactlyOneBuyer(t *testing.T) {
	store := newFakeStore()
	store.addProduct(domain.Product{ID: "prod-001", TenantID: "tenant-001", Name: "Ticket", Price: 500, Stock: 1})

	svc := newFakeService(store, authorizedPayment())
	input := &CheckoutInput{Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}}}

	type result struct {
		order *domain.Order
		err   error
	}
	results := make(chan result, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			o, err := svc.Checkout(context.Background(), "tenant-001", buyer, input)
			results <- result{order: o, err: err}
		}("buyer-" + string(rune('a'+i)))
	}
	wg.Wait()
	close(results)

	var confirmed, insufficient int
	for r := range results {
		if r.err == nil {
			confirmed++
			assert.Equal(t, domain.OrderStatusConfirmed, r.order.Status)
		} else {
			insufficient++
			assert.True(t, errors.Is(r.err, apperrors.ErrInsufficientStock))
		}
	}

	assert.Equal(t, 1, confirmed, "exactly one checkout wins the last unit")
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, store.productStock("prod-001"), "stock never goes negative")
}

func TestCheckout_StockNeverOversoldUnderContention(t *testing.T) {
	const initialStock = 5
	const attempts = 20

	store := newFakeStore()
	store.addProduct(domain.Product{ID: "prod-001", TenantID: "tenant-001", Name: "Ticket", Price: 500, Stock: initialStock})

	svc := newFakeService(store, authorizedPayment())
	input := &CheckoutInput{Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}}}

	var wg sync.WaitGroup
	var confirmed atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", input); err == nil {
				confirmed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), confirmed.Load())
	assert.Equal(t, 0, store.productStock("prod-001"))
}

func TestCheckout_FailedCheckoutLeavesQueryableCanceledOrder(t *testing.T) {
	store := newFakeStore()
	store.addProduct(domain.Product{ID: "prod-001", TenantID: "tenant-001", Price: 500, Stock: 0})

	svc := newFakeService(store, authorizedPayment())

	_, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})
	require.Error(t, err)

	// The canceled order is still on record.
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.orders, 1)
	for _, o := range store.orders {
		assert.Equal(t, domain.OrderStatusCanceled, o.Status)
	}
}

func TestCheckout_LateCancelCannotOverturnConfirmedOrder(t *testing.T) {
	store := newFakeStore()
	store.addProduct(domain.Product{ID: "prod-001", TenantID: "tenant-001", Price: 500, Stock: 3})

	svc := newFakeService(store, authorizedPayment())

	order, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, order.Status)

	// A straggling compensation attempt must not rewrite the terminal status.
	err = store.UpdateStatus(context.Background(), order.ID, "tenant-001", domain.OrderStatusCanceled, "late compensation")
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotPending))

	reloaded, err := svc.GetOrder(context.Background(), "tenant-001", order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, 2, store.productStock("prod-001"), "reserved stock stays reserved")
}

func TestCheckout_PriceChangeAfterOrderDoesNotAffectSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addProduct(domain.Product{ID: "prod-001", TenantID: "tenant-001", Price: 1000, Stock: 10})

	svc := newFakeService(store, authorizedPayment())

	order, err := svc.Checkout(context.Background(), "tenant-001", "buyer-001", &CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: "prod-001", Quantity: 2}},
	})
	require.NoError(t, err)

	store.setPrice("prod-001", 9999)

	reloaded, err := svc.GetOrder(context.Background(), "tenant-001", order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, int64(1000), reloaded.Items[0].UnitPrice)
	assert.Equal(t, int64(2000), reloaded.TotalAmount)
}
