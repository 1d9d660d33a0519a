package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
)

// setupTestDB opens a fresh in-memory database with all tables migrated and
// installs it as the global connection
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Shop{}, &models.User{}, &models.Customer{}, &models.Vehicle{},
		&models.RepairOrder{}, &models.JobStatusLog{}, &models.EstimateApprovalLink{},
		&models.RoPayment{}, &models.Communication{}, &models.RoPhoto{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// A single connection keeps every session on the same in-memory
	// database and serializes concurrent writers
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	config.SetDB(db)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// seedShop creates a shop with an advisor, a customer and a vehicle
func seedShop(t *testing.T, db *gorm.DB) (models.Shop, models.User, models.Customer, models.Vehicle) {
	t.Helper()

	shop := models.Shop{Name: "Test Collision", OwnerEmails: "owner@shop.test"}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("failed to seed shop: %v", err)
	}

	advisor := models.User{
		Auth0ID: "auth0|advisor",
		Name:    "Advisor",
		Email:   "advisor@shop.test",
		Role:    "advisor",
		ShopID:  shop.ID,
	}
	if err := db.Create(&advisor).Error; err != nil {
		t.Fatalf("failed to seed advisor: %v", err)
	}

	customer := models.Customer{ShopID: shop.ID, Name: "Test Customer", Phone: "+15550001111"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}

	vehicle := models.Vehicle{ShopID: shop.ID, CustomerID: customer.ID, Year: 2020, Make: "Toyota", Model: "Camry"}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("failed to seed vehicle: %v", err)
	}

	return shop, advisor, customer, vehicle
}

// drainDispatcher waits until every queued notification has been delivered,
// then clears the singleton so later tests don't enqueue into a closed queue
func drainDispatcher(t *testing.T, d *NotificationDispatcher) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Shutdown(ctx)
	SetNotificationDispatcher(nil)
}

// mustCreateRO opens a repair order for the seeded shop
func mustCreateRO(t *testing.T, shop models.Shop, customer models.Customer, vehicle models.Vehicle, actor *models.User) *models.RepairOrder {
	t.Helper()

	ro, err := CreateRepairOrder(CreateRepairOrderInput{
		ShopID:     shop.ID,
		CustomerID: customer.ID,
		VehicleID:  vehicle.ID,
	}, actor)
	if err != nil {
		t.Fatalf("failed to create repair order: %v", err)
	}
	return ro
}
