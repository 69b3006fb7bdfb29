package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

// SQLiteStore implements the customer, restaurant, order and chat
// message stores on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			whatsapp_phone TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_whatsapp ON customers(whatsapp_phone)`,
		`CREATE TABLE IF NOT EXISTS restaurants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL,
			customer_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (restaurant_id) REFERENCES restaurants(id),
			FOREIGN KEY (customer_id) REFERENCES customers(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders(restaurant_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL,
			restaurant_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			sender TEXT NOT NULL CHECK (sender IN ('customer', 'restaurant')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (customer_id) REFERENCES customers(id),
			FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_conversation ON chat_messages(customer_id, restaurant_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCustomer inserts a customer and fills in its ID.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (full_name, phone, whatsapp_phone) VALUES (?, ?, ?)`,
		c.FullName, c.Phone, nullable(c.WhatsappPhone))
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = int(id)
	return nil
}

// GetCustomer returns a customer by ID, or nil when absent.
func (s *SQLiteStore) GetCustomer(ctx context.Context, id int) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, phone, COALESCE(whatsapp_phone, '') FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

// FindCustomerByAnyAddress returns the first customer whose primary or
// whatsapp-model phone matches any of the candidates, or nil when none
// do.
func (s *SQLiteStore) FindCustomerByAnyAddress(ctx context.Context, candidates []string) (*domain.Customer, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(candidates)), ",")
	query := fmt.Sprintf(
		`SELECT id, full_name, phone, COALESCE(whatsapp_phone, '') FROM customers
		 WHERE phone IN (%s) OR whatsapp_phone IN (%s) LIMIT 1`,
		placeholders, placeholders)

	args := make([]interface{}, 0, len(candidates)*2)
	for i := 0; i < 2; i++ {
		for _, c := range candidates {
			args = append(args, c)
		}
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	return scanCustomer(row)
}

// CreateRestaurant inserts a restaurant and fills in its ID.
func (s *SQLiteStore) CreateRestaurant(ctx context.Context, r *domain.Restaurant) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurants (name, phone) VALUES (?, ?)`, r.Name, r.Phone)
	if err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = int(id)
	return nil
}

// GetRestaurant returns a restaurant by ID, or nil when absent.
func (s *SQLiteStore) GetRestaurant(ctx context.Context, id int) (*domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone FROM restaurants WHERE id = ?`, id)

	var r domain.Restaurant
	if err := row.Scan(&r.ID, &r.Name, &r.Phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan restaurant: %w", err)
	}
	return &r, nil
}

// SaveOrder stores an order snapshot, filling in its ID when new.
func (s *SQLiteStore) SaveOrder(ctx context.Context, o *domain.OrderSnapshot) error {
	snapshot, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order snapshot: %w", err)
	}

	if o.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO orders (restaurant_id, customer_id, status, snapshot) VALUES (?, ?, ?, ?)`,
			o.RestaurantID, o.CustomerID, o.Status, string(snapshot))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		o.ID = int(id)
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO orders (id, restaurant_id, customer_id, status, snapshot) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.RestaurantID, o.CustomerID, o.Status, string(snapshot))
	if err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	return nil
}

// GetOrder returns an order snapshot by ID, or nil when absent.
func (s *SQLiteStore) GetOrder(ctx context.Context, id int) (*domain.OrderSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT snapshot FROM orders WHERE id = ?`, id)

	var snapshot string
	if err := row.Scan(&snapshot); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	var o domain.OrderSnapshot
	if err := json.Unmarshal([]byte(snapshot), &o); err != nil {
		return nil, fmt.Errorf("decode order snapshot: %w", err)
	}
	o.ID = id
	return &o, nil
}

// AppendMessage persists a chat line and returns the stored record with
// its ID and timestamp filled in.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	if !msg.Sender.Valid() {
		return nil, fmt.Errorf("invalid sender %q", msg.Sender)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (customer_id, restaurant_id, message, sender, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.CustomerID, msg.RestaurantID, msg.Message, string(msg.Sender), now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	stored := *msg
	stored.ID = id
	stored.CreatedAt = now
	return &stored, nil
}

// GetConversation returns every message for a pair, oldest first.
func (s *SQLiteStore) GetConversation(ctx context.Context, customerID, restaurantID int) ([]*domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, restaurant_id, message, sender, created_at
		 FROM chat_messages WHERE customer_id = ? AND restaurant_id = ?
		 ORDER BY created_at ASC, id ASC`,
		customerID, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var sender string
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.RestaurantID, &m.Message, &sender, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = domain.Sender(sender)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.WhatsappPhone); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
