package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

type fakeCustomerStore struct {
	customers     map[string]*domain.Customer // keyed by any known address
	err           error
	gotCandidates []string
}

func (f *fakeCustomerStore) FindCustomerByAnyAddress(ctx context.Context, candidates []string) (*domain.Customer, error) {
	f.gotCandidates = candidates
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range candidates {
		if customer, ok := f.customers[c]; ok {
			return customer, nil
		}
	}
	return nil, nil
}

type fakeMessageStore struct {
	mu     sync.Mutex
	nextID int64
	stored []*domain.ChatMessage
	failOn map[int]bool // restaurant IDs whose appends fail
}

func (f *fakeMessageStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[msg.RestaurantID] {
		return nil, errors.New("disk full")
	}
	f.nextID++
	stored := *msg
	stored.ID = f.nextID
	f.stored = append(f.stored, &stored)
	return &stored, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	published []*domain.ChatMessage
}

func (f *fakeNotifier) NotifyChatMessage(msg *domain.ChatMessage) {
	f.mu.Lock()
	f.published = append(f.published, msg)
	f.mu.Unlock()
}

func TestRouterUnknownNumberDropped(t *testing.T) {
	registry := NewRegistry()
	customers := &fakeCustomerStore{customers: map[string]*domain.Customer{}}
	messages := &fakeMessageStore{}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), "5585999998888", "oi")

	if len(messages.stored) != 0 {
		t.Fatalf("expected no persisted messages, got %d", len(messages.stored))
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no notifications, got %d", len(bus.published))
	}
}

func TestRouterTriesNormalizedCandidates(t *testing.T) {
	// Customer stored under the whatsapp-model form; inbound address
	// carries the country prefix and the extra ninth digit.
	customer := testCustomer(1)
	registry := NewRegistry()
	registry.Open(customer, testRestaurant(2))

	customers := &fakeCustomerStore{customers: map[string]*domain.Customer{
		"8599998888": customer,
	}}
	messages := &fakeMessageStore{}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), "5585999998888", "oi")

	if len(messages.stored) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(messages.stored))
	}
	got := messages.stored[0]
	if got.CustomerID != 1 || got.RestaurantID != 2 || got.Message != "oi" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Sender != domain.SenderCustomer {
		t.Fatalf("expected customer sender, got %q", got.Sender)
	}
}

func TestRouterNoOpenSessionDropped(t *testing.T) {
	customer := testCustomer(1)
	registry := NewRegistry()
	customers := &fakeCustomerStore{customers: map[string]*domain.Customer{
		customer.Phone: customer,
	}}
	messages := &fakeMessageStore{}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), customer.Phone, "oi")

	if len(messages.stored) != 0 || len(bus.published) != 0 {
		t.Fatal("message outside open session should be dropped")
	}
}

func TestRouterFansOutToEverySession(t *testing.T) {
	customer := testCustomer(1)
	registry := NewRegistry()
	registry.Open(customer, testRestaurant(10))
	registry.Open(customer, testRestaurant(20))

	customers := &fakeCustomerStore{customers: map[string]*domain.Customer{
		customer.Phone: customer,
	}}
	messages := &fakeMessageStore{}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), customer.Phone, "pedido pronto?")

	if len(messages.stored) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(messages.stored))
	}
	if len(bus.published) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(bus.published))
	}
	restaurants := map[int]bool{}
	for _, m := range bus.published {
		restaurants[m.RestaurantID] = true
	}
	if !restaurants[10] || !restaurants[20] {
		t.Fatalf("notifications missing a session: %v", restaurants)
	}
}

func TestRouterPersistFailureDoesNotBlockOtherSessions(t *testing.T) {
	customer := testCustomer(1)
	registry := NewRegistry()
	registry.Open(customer, testRestaurant(10))
	registry.Open(customer, testRestaurant(20))

	customers := &fakeCustomerStore{customers: map[string]*domain.Customer{
		customer.Phone: customer,
	}}
	messages := &fakeMessageStore{failOn: map[int]bool{10: true}}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), customer.Phone, "oi")

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(bus.published))
	}
	if bus.published[0].RestaurantID != 20 {
		t.Fatalf("wrong session notified: %+v", bus.published[0])
	}
}

func TestRouterLookupErrorDropped(t *testing.T) {
	registry := NewRegistry()
	registry.Open(testCustomer(1), testRestaurant(2))
	customers := &fakeCustomerStore{err: errors.New("db down")}
	messages := &fakeMessageStore{}
	bus := &fakeNotifier{}
	router := NewRouter(registry, customers, messages, bus)

	router.HandleIncoming(context.Background(), "85999998888", "oi")

	if len(messages.stored) != 0 || len(bus.published) != 0 {
		t.Fatal("lookup failure must not persist or publish")
	}
}
