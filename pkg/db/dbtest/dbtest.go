// Package dbtest opens isolated sqlite databases with the storefront schema
// and seeds the rows repository and service tests need.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a fresh in-memory database migrated from the models.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storefront_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a db.Client so services get a real transaction runner.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}

// Identity describes a user bound to a single role.
type Identity struct {
	Email          string
	DocumentCode   string
	DocumentNumber string
	RoleName       string
}

// SeedIdentity creates the document type, user, role and binding as needed
// and returns the binding, whose ID is the identity key.
func SeedIdentity(t testing.TB, conn *gorm.DB, in Identity) models.UserRole {
	t.Helper()
	if in.DocumentCode == "" {
		in.DocumentCode = "CC"
	}
	if in.DocumentNumber == "" {
		in.DocumentNumber = uuid.NewString()[:10]
	}
	if in.Email == "" {
		in.Email = fmt.Sprintf("user_%s@example.com", uuid.NewString()[:8])
	}
	if in.RoleName == "" {
		in.RoleName = "Cliente"
	}

	docType := models.DocumentType{Code: in.DocumentCode, Name: in.DocumentCode}
	if err := conn.Where(models.DocumentType{Code: in.DocumentCode}).FirstOrCreate(&docType).Error; err != nil {
		t.Fatalf("seed document type: %v", err)
	}

	user := models.User{
		DocumentTypeID: docType.ID,
		DocumentNumber: in.DocumentNumber,
		Email:          in.Email,
		FirstName:      "Test",
		LastName:       "Buyer",
		IsActive:       true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return BindRole(t, conn, user.ID, in.RoleName)
}

// BindRole attaches an additional role to an existing user.
func BindRole(t testing.TB, conn *gorm.DB, userID uuid.UUID, roleName string) models.UserRole {
	t.Helper()
	role := models.Role{Name: roleName}
	if err := conn.Where(models.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}
	binding := models.UserRole{UserID: userID, RoleID: role.ID}
	if err := conn.Create(&binding).Error; err != nil {
		t.Fatalf("seed user role: %v", err)
	}
	binding.Role = &role
	return binding
}

// SeedProduct inserts a catalog row. unitValue and ivaPct are decimal strings.
func SeedProduct(t testing.TB, conn *gorm.DB, name, unitValue, ivaPct string, active bool) models.Product {
	t.Helper()
	product := models.Product{
		Name:      name,
		UnitValue: decimal.RequireFromString(unitValue),
		IVAPct:    decimal.RequireFromString(ivaPct),
		Active:    active,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedStock sets the available quantity of a product.
func SeedStock(t testing.TB, conn *gorm.DB, productID uuid.UUID, available int) models.Stock {
	t.Helper()
	row := models.Stock{ProductID: productID, AvailableQuantity: available}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return row
}

// SeedCart inserts a cart with the given items (product id -> quantity).
func SeedCart(t testing.TB, conn *gorm.DB, identityID uuid.UUID, items map[uuid.UUID]int) models.Cart {
	t.Helper()
	cart := models.Cart{IdentityID: identityID}
	if err := conn.Create(&cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for productID, qty := range items {
		item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
		if err := conn.Create(&item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return cart
}

// SeedPaymentLookups inserts the payment types and the given statuses.
func SeedPaymentLookups(t testing.TB, conn *gorm.DB, statuses ...string) {
	t.Helper()
	for _, name := range []string{"debito", "credito"} {
		row := models.PaymentType{Name: name}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed payment type: %v", err)
		}
	}
	for _, name := range statuses {
		row := models.PaymentStatus{Name: name}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed payment status: %v", err)
		}
	}
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
