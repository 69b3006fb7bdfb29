package chat

import (
	"sync"
	"testing"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

func testCustomer(id int) *domain.Customer {
	return &domain.Customer{ID: id, FullName: "João Silva", Phone: "85999998888", WhatsappPhone: "8599998888"}
}

func testRestaurant(id int) *domain.Restaurant {
	return &domain.Restaurant{ID: id, Name: "Pizzaria do Zé", Phone: "8533334444"}
}

func TestRegistryOpenAndClose(t *testing.T) {
	r := NewRegistry()

	if r.IsOpen(1, 2) {
		t.Fatal("expected no session before open")
	}

	session := r.Open(testCustomer(1), testRestaurant(2))
	if session.CustomerID != 1 || session.RestaurantID != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.CustomerName != "João Silva" || session.RestaurantName != "Pizzaria do Zé" {
		t.Fatalf("session metadata not filled: %+v", session)
	}
	if session.StartedAt.IsZero() {
		t.Fatal("StartedAt not set")
	}
	if !r.IsOpen(1, 2) {
		t.Fatal("expected session open")
	}

	r.Close(1, 2)
	if r.IsOpen(1, 2) {
		t.Fatal("expected session closed")
	}
}

func TestRegistryReopenReplacesSession(t *testing.T) {
	r := NewRegistry()

	first := r.Open(testCustomer(1), testRestaurant(2))
	customer := testCustomer(1)
	customer.FullName = "João S."
	second := r.Open(customer, testRestaurant(2))

	if !second.StartedAt.Equal(first.StartedAt) && second.StartedAt.Before(first.StartedAt) {
		t.Fatal("reopen went backwards in time")
	}

	open := r.ListOpen()
	if len(open) != 1 {
		t.Fatalf("expected 1 open session, got %d", len(open))
	}
	if open[0].CustomerName != "João S." {
		t.Fatalf("reopen did not refresh metadata: %+v", open[0])
	}
}

func TestRegistryCloseAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Close(9, 9)
	if len(r.ListOpen()) != 0 {
		t.Fatal("expected no sessions")
	}
}

func TestRegistryFindByCustomer(t *testing.T) {
	r := NewRegistry()
	r.Open(testCustomer(1), testRestaurant(10))
	r.Open(testCustomer(1), testRestaurant(20))
	r.Open(testCustomer(2), testRestaurant(10))

	sessions := r.FindByCustomer(1)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions for customer 1, got %d", len(sessions))
	}
	restaurants := map[int]bool{}
	for _, s := range sessions {
		if s.CustomerID != 1 {
			t.Fatalf("wrong customer in result: %+v", s)
		}
		restaurants[s.RestaurantID] = true
	}
	if !restaurants[10] || !restaurants[20] {
		t.Fatalf("wrong restaurants in result: %v", restaurants)
	}

	if got := r.FindByCustomer(3); len(got) != 0 {
		t.Fatalf("expected no sessions for customer 3, got %d", len(got))
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Open(testCustomer(i), testRestaurant(1))
			r.IsOpen(i, 1)
			r.FindByCustomer(i)
			if i%2 == 0 {
				r.Close(i, 1)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.ListOpen()); got != 25 {
		t.Fatalf("expected 25 open sessions, got %d", got)
	}
}
