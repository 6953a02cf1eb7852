package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  pincode TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  latitude REAL,
  longitude REAL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func createProduct(t *testing.T, db *gorm.DB, vendorID uuid.UUID, name string, stock int, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		VendorID:      vendorID,
		Name:          name,
		Category:      "electronics",
		Price:         decimal.RequireFromString("499.00"),
		StockQuantity: stock,
		IsActive:      active,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestRepositoryDecrementStockGuarded(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	product := createProduct(t, db, uuid.New(), "Headphones", 5, true)

	ok, err := repo.DecrementStock(context.Background(), product.ID, 3)
	if err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement within stock to succeed")
	}

	var reloaded models.Product
	if err := db.Where("id = ?", product.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.StockQuantity != 2 {
		t.Fatalf("stock = %d, want 2", reloaded.StockQuantity)
	}

	// More than the remaining stock must not touch the row.
	ok, err = repo.DecrementStock(context.Background(), product.ID, 3)
	if err != nil {
		t.Fatalf("second DecrementStock: %v", err)
	}
	if ok {
		t.Fatal("oversell decrement should report no row updated")
	}
	if err := db.Where("id = ?", product.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.StockQuantity != 2 {
		t.Fatalf("stock = %d, want unchanged 2", reloaded.StockQuantity)
	}
}

func TestRepositoryFindProductsForUpdateSkipsInactive(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	active := createProduct(t, db, vendorID, "Active Item", 10, true)
	retired := createProduct(t, db, vendorID, "Retired Item", 10, false)

	products, err := repo.FindProductsForUpdate(context.Background(), []uuid.UUID{active.ID, retired.ID})
	if err != nil {
		t.Fatalf("FindProductsForUpdate: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected only the active product, got %d rows", len(products))
	}
	if products[0].ID != active.ID {
		t.Fatalf("got product %s, want %s", products[0].ID, active.ID)
	}
}

func TestRepositoryCartRoundTrip(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	product := createProduct(t, db, uuid.New(), "Cart Item", 4, true)
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	item := &models.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, Quantity: 2}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart item: %v", err)
	}

	loaded, err := repo.FindCartWithItems(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindCartWithItems: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected one cart item, got %d", len(loaded.Items))
	}
	if loaded.Items[0].Product == nil || loaded.Items[0].Product.Name != "Cart Item" {
		t.Fatalf("product not preloaded: %+v", loaded.Items[0].Product)
	}

	if err := repo.ClearCart(context.Background(), cart.ID); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	cleared, err := repo.FindCartWithItems(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindCartWithItems after clear: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("cart should be empty, got %d items", len(cleared.Items))
	}
}

func TestRepositoryFindAddressScopedToOwner(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)

	ownerID := uuid.New()
	address := &models.Address{
		ID:      uuid.New(),
		UserID:  ownerID,
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
		Phone:   "9876543210",
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}

	found, err := repo.FindAddress(context.Background(), address.ID, ownerID)
	if err != nil {
		t.Fatalf("FindAddress: %v", err)
	}
	if found.Pincode != "560001" {
		t.Fatalf("pincode = %q, want 560001", found.Pincode)
	}

	if _, err := repo.FindAddress(context.Background(), address.ID, uuid.New()); err != gorm.ErrRecordNotFound {
		t.Fatalf("foreign user should not see the address, got %v", err)
	}
}
