package handlers

import (
	"context"
	"errors"
	"sync"

	"storefront-service/internal/marketing"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"

	"github.com/google/uuid"
)

var errMockNotConfigured = errors.New("mock not configured")

// mockProductStore implements products.Store through settable function fields.
type mockProductStore struct {
	ListProductsFunc        func(ctx context.Context, category, search string) ([]products.Product, error)
	GetProductByIDFunc      func(ctx context.Context, id string) (products.Product, error)
	GetFeaturedProductsFunc func(ctx context.Context, limit int) ([]products.Product, error)
	InsertProductFunc       func(ctx context.Context, np products.NewProduct) (products.Product, error)
	UpdateProductFunc       func(ctx context.Context, id string, np products.NewProduct) (products.Product, error)
	DeactivateProductFunc   func(ctx context.Context, id string) error
	InsertReviewFunc        func(ctx context.Context, productID, userEmail string, nr products.NewReview) (products.Review, error)
	ListReviewsFunc         func(ctx context.Context, productID string) ([]products.Review, error)
}

func (m *mockProductStore) ListProducts(ctx context.Context, category, search string) ([]products.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, category, search)
	}
	return nil, nil
}

func (m *mockProductStore) GetProductByID(ctx context.Context, id string) (products.Product, error) {
	if m.GetProductByIDFunc != nil {
		return m.GetProductByIDFunc(ctx, id)
	}
	return products.Product{}, errMockNotConfigured
}

func (m *mockProductStore) GetFeaturedProducts(ctx context.Context, limit int) ([]products.Product, error) {
	if m.GetFeaturedProductsFunc != nil {
		return m.GetFeaturedProductsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockProductStore) InsertProduct(ctx context.Context, np products.NewProduct) (products.Product, error) {
	if m.InsertProductFunc != nil {
		return m.InsertProductFunc(ctx, np)
	}
	return products.Product{}, errMockNotConfigured
}

func (m *mockProductStore) UpdateProduct(ctx context.Context, id string, np products.NewProduct) (products.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, np)
	}
	return products.Product{}, errMockNotConfigured
}

func (m *mockProductStore) DeactivateProduct(ctx context.Context, id string) error {
	if m.DeactivateProductFunc != nil {
		return m.DeactivateProductFunc(ctx, id)
	}
	return errMockNotConfigured
}

func (m *mockProductStore) InsertReview(ctx context.Context, productID, userEmail string, nr products.NewReview) (products.Review, error) {
	if m.InsertReviewFunc != nil {
		return m.InsertReviewFunc(ctx, productID, userEmail, nr)
	}
	return products.Review{}, errMockNotConfigured
}

func (m *mockProductStore) ListReviews(ctx context.Context, productID string) ([]products.Review, error) {
	if m.ListReviewsFunc != nil {
		return m.ListReviewsFunc(ctx, productID)
	}
	return nil, nil
}

// mockProcessor implements payments.Processor through settable function fields.
type mockProcessor struct {
	CreateSessionFunc    func(ctx context.Context, item payments.CheckoutItem, customerEmail string) (payments.Session, error)
	GetSessionStatusFunc func(ctx context.Context, sessionID string) (string, error)
}

func (m *mockProcessor) CreateSession(ctx context.Context, item payments.CheckoutItem, customerEmail string) (payments.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, item, customerEmail)
	}
	return payments.Session{ID: "cs_test_" + uuid.NewString(), URL: "https://checkout.stripe.test/session"}, nil
}

func (m *mockProcessor) GetSessionStatus(ctx context.Context, sessionID string) (string, error) {
	if m.GetSessionStatusFunc != nil {
		return m.GetSessionStatusFunc(ctx, sessionID)
	}
	return payments.StatusPaid, nil
}

// memMarketingStore keeps subscriptions and messages in maps to verify the
// upsert and append-only semantics.
type memMarketingStore struct {
	mu            sync.Mutex
	subscriptions map[string]marketing.Subscription
	messages      []marketing.ContactMessage
}

func newMemMarketingStore() *memMarketingStore {
	return &memMarketingStore{subscriptions: map[string]marketing.Subscription{}}
}

func (m *memMarketingStore) UpsertSubscription(ctx context.Context, email string) (marketing.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[email]
	if !ok {
		s = marketing.Subscription{Email: email}
	}
	s.Subscribed = true
	m.subscriptions[email] = s
	return s, nil
}

func (m *memMarketingStore) InsertContactMessage(ctx context.Context, nm marketing.NewContactMessage) (marketing.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subject := nm.Subject
	if subject == "" {
		subject = "General Inquiry"
	}
	msg := marketing.ContactMessage{
		ID:      uuid.NewString(),
		Name:    nm.Name,
		Email:   nm.Email,
		Subject: subject,
		Message: nm.Message,
		Status:  "new",
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memMarketingStore) ListContactMessages(ctx context.Context) ([]marketing.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]marketing.ContactMessage(nil), m.messages...), nil
}

type productFile struct {
	Title    string
	FileType string
	FileSize string
	FileURL  string
}

// memOrderStore is an in-memory orders.Store with the same conditional
// semantics as the SQL implementation: the limit check and the increment
// happen under one lock, and the status transition is check-and-set.
type memOrderStore struct {
	mu           sync.Mutex
	bySession    map[string]*orders.Order
	byToken      map[string]*orders.Order
	files        map[string]productFile
	productBumps map[string]int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		bySession:    map[string]*orders.Order{},
		byToken:      map[string]*orders.Order{},
		files:        map[string]productFile{},
		productBumps: map[string]int{},
	}
}

func (m *memOrderStore) setFile(productID string, f productFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[productID] = f
}

func (m *memOrderStore) CreateOrder(ctx context.Context, no orders.NewOrder) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maxDownloads := no.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = orders.DefaultMaxDownloads
	}
	o := &orders.Order{
		ID:              uuid.NewString(),
		UserEmail:       no.UserEmail,
		ProductID:       no.ProductID,
		StripeSessionID: no.StripeSessionID,
		Amount:          no.Amount,
		Status:          orders.StatusPending,
		DownloadToken:   uuid.NewString(),
		MaxDownloads:    maxDownloads,
	}
	m.bySession[o.StripeSessionID] = o
	m.byToken[o.DownloadToken] = o
	return *o, nil
}

func (m *memOrderStore) GetOrderBySessionID(ctx context.Context, sessionID string) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.bySession[sessionID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return *o, nil
}

func (m *memOrderStore) CompleteOrder(ctx context.Context, sessionID string) (orders.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.bySession[sessionID]
	if !ok {
		return orders.Order{}, false, orders.ErrNotFound
	}
	if o.Status != orders.StatusPending {
		return *o, false, nil
	}
	o.Status = orders.StatusCompleted
	m.productBumps[o.ProductID]++
	return *o, true, nil
}

func (m *memOrderStore) AuthorizeDownload(ctx context.Context, token string) (orders.Order, orders.DownloadGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byToken[token]
	if !ok {
		return orders.Order{}, orders.DownloadGrant{}, orders.ErrNotFound
	}
	if o.Status != orders.StatusCompleted {
		return orders.Order{}, orders.DownloadGrant{}, orders.ErrNotCompleted
	}
	if o.DownloadCount >= o.MaxDownloads {
		return orders.Order{}, orders.DownloadGrant{}, orders.ErrLimitExceeded
	}
	o.DownloadCount++

	f, ok := m.files[o.ProductID]
	if !ok {
		f = productFile{Title: "Test Product", FileType: "PDF", FileSize: "1 MB", FileURL: "https://files.test/item.pdf"}
	}
	grant := orders.DownloadGrant{
		ProductTitle: f.Title,
		FileType:     f.FileType,
		FileSize:     f.FileSize,
		FileURL:      f.FileURL,
		Remaining:    o.MaxDownloads - o.DownloadCount,
	}
	return *o, grant, nil
}

func (m *memOrderStore) ReleaseDownload(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byToken[token]
	if !ok {
		return nil
	}
	if o.DownloadCount > 0 {
		o.DownloadCount--
	}
	return nil
}
