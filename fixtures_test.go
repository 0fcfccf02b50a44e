package zjoin

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

type Customer struct {
	ID        int
	Name      string
	CountryID int
	Country   *Country
	Address   *Address
	Orders    []*Order
	Items     []Item
}

func (Customer) CountryRelation() Relation { return BelongsTo[Country]{} }
func (Customer) AddressRelation() Relation { return HasOne[Address]{} }
func (Customer) OrdersRelation() Relation  { return HasMany[Order]{} }
func (Customer) ItemsRelation() Relation   { return HasManyThrough[Item, Order]{} }

type Country struct {
	ID   int
	Code string
}

func (Country) TableName() string { return "countries" }

type Address struct {
	ID         int
	CustomerID int
	City       string
}

func (Address) TableName() string { return "addresses" }

type Order struct {
	ID         int
	CustomerID int
	Total      float64
	Customer   *Customer
	Items      []*Item
	Tags       []Tag
	AuditLogs  []*AuditLog
	Reviewer   *Customer
}

func (Order) CustomerRelation() Relation  { return BelongsTo[Customer]{} }
func (Order) ItemsRelation() Relation     { return HasMany[Item]{} }
func (Order) TagsRelation() Relation      { return BelongsToMany[Tag]{PivotTable: "order_tags"} }
func (Order) AuditLogsRelation() Relation { return HasMany[AuditLog]{ForeignKey: "order_id"} }
func (Order) ReviewerRelation() Relation {
	return BelongsTo[Customer]{ForeignKey: "reviewer_id"}
}

type Item struct {
	ID      int
	OrderID int
	Sku     string
	Order   *Order
}

func (Item) OrderRelation() Relation { return BelongsTo[Order]{} }

type Tag struct {
	ID    int
	Label string
}

// AuditLog lives on another connection, so it can never be joined from Order.
type AuditLog struct {
	ID      int
	OrderID int
	Message string
}

func (AuditLog) Connection() string { return "audit" }

// testSchema lists the columns of every fixture table.
var testSchema = StaticSchema{
	"countries":  {"id", "code"},
	"customers":  {"id", "name", "country_id"},
	"addresses":  {"id", "customer_id", "city"},
	"orders":     {"id", "customer_id", "total"},
	"items":      {"id", "order_id", "sku"},
	"tags":       {"id", "label"},
	"order_tags": {"order_id", "tag_id"},
	"audit_logs": {"id", "order_id", "message"},
}

// setupShopDB creates an in-memory SQLite DB with the fixture tables.
func setupShopDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// one connection so every query sees the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE countries (id INTEGER PRIMARY KEY, code TEXT);
		CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT, country_id INTEGER);
		CREATE TABLE addresses (id INTEGER PRIMARY KEY, customer_id INTEGER, city TEXT);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total REAL, reviewer_id INTEGER);
		CREATE TABLE items (id INTEGER PRIMARY KEY, order_id INTEGER, sku TEXT);
		CREATE TABLE tags (id INTEGER PRIMARY KEY, label TEXT);
		CREATE TABLE order_tags (order_id INTEGER, tag_id INTEGER);

		INSERT INTO countries (id, code) VALUES (1, 'NL'), (2, 'DE');
		INSERT INTO customers (id, name, country_id) VALUES (1, 'Ann', 1), (2, 'Bob', 2), (3, 'Cid', 1);
		INSERT INTO addresses (id, customer_id, city) VALUES (1, 1, 'Utrecht');
		INSERT INTO orders (id, customer_id, total, reviewer_id) VALUES (1, 1, 10.5, 2), (2, 1, 20, NULL), (3, 2, 30, 1);
		INSERT INTO items (id, order_id, sku) VALUES (1, 1, 'A'), (2, 1, 'B'), (3, 2, 'C'), (4, 3, 'D');
		INSERT INTO tags (id, label) VALUES (1, 'gift'), (2, 'rush');
		INSERT INTO order_tags (order_id, tag_id) VALUES (1, 1), (1, 2), (3, 2);
	`)
	if err != nil {
		t.Fatalf("failed to setup shop DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
