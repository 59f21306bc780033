package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jnst/pull-payment-service/internal/events"
	"github.com/jnst/pull-payment-service/internal/model"
	"github.com/jnst/pull-payment-service/internal/repository"
)

// Test doubles shared by the service tests: in-memory repositories mirroring
// the PostgreSQL implementations (including the live-destination uniqueness
// constraint), a scriptable payout handler, and stub collaborators.

const (
	methodCrypto = "BTC-OnChain"
	methodFiat   = "USD-Bank"
)

var (
	_ repository.PullPaymentRepository = (*memPullPayments)(nil)
	_ repository.PayoutRepository      = (*memPayouts)(nil)
)

type memPullPayments struct {
	mu    sync.Mutex
	items map[string]*model.PullPayment
}

func newMemPullPayments() *memPullPayments {
	return &memPullPayments{items: make(map[string]*model.PullPayment)}
}

func (m *memPullPayments) Create(_ context.Context, pullPayment *model.PullPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *pullPayment
	m.items[pullPayment.ID] = &clone

	return nil
}

func (m *memPullPayments) GetByID(_ context.Context, id string) (*model.PullPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pullPayment, ok := m.items[id]
	if !ok {
		return nil, model.ErrPullPaymentNotFound
	}

	clone := *pullPayment

	return &clone, nil
}

func (m *memPullPayments) Archive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pullPayment, ok := m.items[id]; ok {
		pullPayment.Archived = true
	}

	return nil
}

type memPayouts struct {
	mu        sync.Mutex
	items     map[string]*model.Payout
	order     []string
	createErr error
	getErr    error
}

func newMemPayouts() *memPayouts {
	return &memPayouts{items: make(map[string]*model.Payout)}
}

func (m *memPayouts) Create(_ context.Context, payout *model.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil

		return err
	}

	// Mirror the partial unique index on live destinations.
	if payout.Destination != "" {
		for _, existing := range m.items {
			if existing.Destination == payout.Destination && !existing.State.Terminal() {
				return model.ErrDuplicateDestination
			}
		}
	}

	clone := *payout
	m.items[payout.ID] = &clone
	m.order = append(m.order, payout.ID)

	return nil
}

func (m *memPayouts) GetByID(_ context.Context, id string) (*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		err := m.getErr
		m.getErr = nil

		return nil, err
	}

	payout, ok := m.items[id]
	if !ok {
		return nil, model.ErrPayoutNotFound
	}

	clone := *payout

	return &clone, nil
}

func (m *memPayouts) Update(_ context.Context, payout *model.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[payout.ID]; !ok {
		return model.ErrPayoutNotFound
	}

	clone := *payout
	m.items[payout.ID] = &clone

	return nil
}

func (m *memPayouts) ListByPullPayment(_ context.Context, pullPaymentID string) ([]*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var payouts []*model.Payout

	for _, id := range m.order {
		payout := m.items[id]
		if payout.PullPaymentID == pullPaymentID {
			clone := *payout
			payouts = append(payouts, &clone)
		}
	}

	return payouts, nil
}

func (m *memPayouts) ListInWindow(
	_ context.Context, pullPaymentID string, from, to *time.Time,
) ([]*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var payouts []*model.Payout

	for _, id := range m.order {
		payout := m.items[id]
		if payout.PullPaymentID != pullPaymentID {
			continue
		}

		if from != nil && payout.Date.Before(*from) {
			continue
		}

		if to != nil && !payout.Date.Before(*to) {
			continue
		}

		clone := *payout
		payouts = append(payouts, &clone)
	}

	return payouts, nil
}

func (m *memPayouts) ListByIDs(_ context.Context, ids []string) ([]*model.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var payouts []*model.Payout

	for _, id := range ids {
		if payout, ok := m.items[id]; ok {
			clone := *payout
			payouts = append(payouts, &clone)
		}
	}

	return payouts, nil
}

func (m *memPayouts) LiveDestinationExists(_ context.Context, destinationKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, payout := range m.items {
		if payout.Destination == destinationKey && !payout.State.Terminal() {
			return true, nil
		}
	}

	return false, nil
}

func (m *memPayouts) setState(t *testing.T, id string, state model.PayoutState) {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	payout, ok := m.items[id]
	require.True(t, ok, "payout %s not found", id)
	payout.State = state
}

func (m *memPayouts) committedTotal(pullPaymentID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero

	for _, payout := range m.items {
		if payout.PullPaymentID == pullPaymentID && payout.State != model.PayoutStateCancelled {
			total = total.Add(payout.Blob.Amount)
		}
	}

	return total
}

func (m *memPayouts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

type stubHandler struct {
	minimum       decimal.Decimal
	subscriptions []events.Type

	mu              sync.Mutex
	tracked         []model.Destination
	backgroundItems []any
	panicInCheck    bool
}

func (h *stubHandler) Subscriptions() []events.Type {
	return h.subscriptions
}

func (h *stubHandler) BackgroundCheck(_ context.Context, item any) error {
	if h.panicInCheck {
		panic("handler exploded")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.backgroundItems = append(h.backgroundItems, item)

	return nil
}

func (*stubHandler) ParseDestination(_ context.Context, _ string, raw string, _ bool) (model.Destination, error) {
	return model.Destination{Address: raw, Key: raw}, nil
}

func (h *stubHandler) MinimumPayoutAmount(_ context.Context, _ string, _ model.Destination) (decimal.Decimal, error) {
	return h.minimum, nil
}

func (h *stubHandler) TrackClaim(_ context.Context, _ string, destination model.Destination) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tracked = append(h.tracked, destination)

	return nil
}

func (h *stubHandler) seenItems() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.backgroundItems)
}

type stubRates struct {
	rate decimal.Decimal
	err  error

	mu       sync.Mutex
	lastRule RateRule
	lastPair CurrencyPair
}

func (r *stubRates) FetchRate(_ context.Context, rule RateRule, pair CurrencyPair) (decimal.Decimal, error) {
	r.mu.Lock()
	r.lastRule = rule
	r.lastPair = pair
	r.mu.Unlock()

	return r.rate, r.err
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []*model.PayoutNotification
}

func (n *stubNotifier) Send(_ context.Context, _ string, notification *model.PayoutNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification)

	return nil
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type fixture struct {
	svc          *Service
	pullPayments *memPullPayments
	payouts      *memPayouts
	handler      *stubHandler
	notifier     *stubNotifier
	bus          *events.Bus
	clock        *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		pullPayments: newMemPullPayments(),
		payouts:      newMemPayouts(),
		handler:      &stubHandler{},
		notifier:     &stubNotifier{},
		bus:          events.NewBus(),
		clock:        newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	registry := NewHandlerRegistry()
	registry.Register(methodCrypto, f.handler)
	registry.Register(methodFiat, f.handler)

	opts = append([]Option{
		WithClock(f.clock.Now),
		WithNotificationSender(f.notifier),
	}, opts...)

	f.svc = NewService(f.pullPayments, f.payouts, registry, f.bus, opts...)
	f.svc.Start()
	t.Cleanup(f.svc.Stop)

	return f
}

func (f *fixture) createPullPayment(t *testing.T, limit int64, mutate func(*model.CreatePullPaymentParams)) string {
	t.Helper()

	params := &model.CreatePullPaymentParams{
		StoreID:                 "store1",
		Name:                    "bounty budget",
		Amount:                  decimal.NewFromInt(limit),
		Currency:                "USD",
		SupportedPaymentMethods: []string{methodCrypto, methodFiat},
	}
	if mutate != nil {
		mutate(params)
	}

	id, err := f.svc.CreatePullPayment(context.Background(), params)
	require.NoError(t, err)

	return id
}

func (f *fixture) claim(t *testing.T, pullPaymentID string, value *decimal.Decimal, destination string) *model.ClaimResponse {
	t.Helper()

	response, err := f.svc.Claim(context.Background(), &model.ClaimRequest{
		PullPaymentID:   pullPaymentID,
		PaymentMethodID: methodCrypto,
		Value:           value,
		Destination:     model.Destination{Address: destination, Key: destination},
	})
	require.NoError(t, err)

	return response
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
