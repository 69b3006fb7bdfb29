package store

import (
	"context"
	"testing"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func seedPair(t *testing.T, s *SQLiteStore) (*domain.Customer, *domain.Restaurant) {
	t.Helper()
	ctx := context.Background()

	customer := &domain.Customer{FullName: "João Silva", Phone: "85999998888", WhatsappPhone: "8599998888"}
	if err := s.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	restaurant := &domain.Restaurant{Name: "Pizzaria do Zé", Phone: "8533334444"}
	if err := s.CreateRestaurant(ctx, restaurant); err != nil {
		t.Fatalf("CreateRestaurant failed: %v", err)
	}
	return customer, restaurant
}

func TestCustomerRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	customer, _ := seedPair(t, store)
	if customer.ID == 0 {
		t.Fatal("expected customer ID to be filled in")
	}

	got, err := store.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if got == nil || got.FullName != "João Silva" || got.WhatsappPhone != "8599998888" {
		t.Fatalf("unexpected customer: %+v", got)
	}

	missing, err := store.GetCustomer(ctx, 9999)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing customer, got %+v", missing)
	}
}

func TestFindCustomerByAnyAddress(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	customer, _ := seedPair(t, store)

	tests := []struct {
		name       string
		candidates []string
		found      bool
	}{
		{"primary phone", []string{"85999998888"}, true},
		{"whatsapp model", []string{"8599998888"}, true},
		{"later candidate wins", []string{"0000000000", "8599998888"}, true},
		{"unknown", []string{"1199990000"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		got, err := store.FindCustomerByAnyAddress(ctx, tt.candidates)
		if err != nil {
			t.Fatalf("%s: FindCustomerByAnyAddress failed: %v", tt.name, err)
		}
		if tt.found && (got == nil || got.ID != customer.ID) {
			t.Fatalf("%s: expected customer %d, got %+v", tt.name, customer.ID, got)
		}
		if !tt.found && got != nil {
			t.Fatalf("%s: expected no match, got %+v", tt.name, got)
		}
	}
}

func TestRestaurantRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	_, restaurant := seedPair(t, store)

	got, err := store.GetRestaurant(ctx, restaurant.ID)
	if err != nil {
		t.Fatalf("GetRestaurant failed: %v", err)
	}
	if got == nil || got.Name != "Pizzaria do Zé" {
		t.Fatalf("unexpected restaurant: %+v", got)
	}

	missing, err := store.GetRestaurant(ctx, 9999)
	if err != nil {
		t.Fatalf("GetRestaurant failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing restaurant, got %+v", missing)
	}
}

func TestOrderSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	customer, restaurant := seedPair(t, store)

	order := &domain.OrderSnapshot{
		RestaurantID: restaurant.ID,
		CustomerID:   customer.ID,
		Status:       "PENDING",
		OrderType:    "DELIVERY",
		Total:        59.9,
		Items: []domain.OrderItem{
			{Quantity: 2, Name: "Pizza Calabresa", Price: 29.95},
		},
	}
	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("expected order ID to be filled in")
	}

	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got == nil || got.Status != "PENDING" || len(got.Items) != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}

	// Update in place.
	order.Status = "PREPARING"
	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder update failed: %v", err)
	}
	got, err = store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != "PREPARING" {
		t.Fatalf("status not updated: %+v", got)
	}
}

func TestAppendMessageAndConversation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	customer, restaurant := seedPair(t, store)

	lines := []struct {
		text   string
		sender domain.Sender
	}{
		{"oi, tudo bem?", domain.SenderCustomer},
		{"tudo ótimo, pode pedir", domain.SenderRestaurant},
		{"quero uma calabresa", domain.SenderCustomer},
	}
	for _, line := range lines {
		stored, err := store.AppendMessage(ctx, &domain.ChatMessage{
			CustomerID:   customer.ID,
			RestaurantID: restaurant.ID,
			Message:      line.text,
			Sender:       line.sender,
		})
		if err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		if stored.ID == 0 {
			t.Fatal("expected stored ID to be filled in")
		}
		if stored.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be filled in")
		}
	}

	conversation, err := store.GetConversation(ctx, customer.ID, restaurant.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(conversation) != len(lines) {
		t.Fatalf("expected %d messages, got %d", len(lines), len(conversation))
	}
	for i, m := range conversation {
		if m.Message != lines[i].text || m.Sender != lines[i].sender {
			t.Fatalf("message %d out of order: %+v", i, m)
		}
	}

	empty, err := store.GetConversation(ctx, customer.ID, 9999)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty conversation, got %d messages", len(empty))
	}
}

func TestAppendMessageRejectsInvalidSender(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	customer, restaurant := seedPair(t, store)

	_, err := store.AppendMessage(ctx, &domain.ChatMessage{
		CustomerID:   customer.ID,
		RestaurantID: restaurant.ID,
		Message:      "oi",
		Sender:       "bot",
	})
	if err == nil {
		t.Fatal("expected error for invalid sender")
	}
}
