package repositories

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"payment-hub.backend/internal/infrastructure/models"
)

// newTestDB opens a private in-memory database per test with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UETRTrackingRecord{},
		&models.ClearingSystemConfig{},
		&models.PaymentRoutingRule{},
		&models.CoreBankingConfig{},
		&models.EndpointConfiguration{},
		&models.PayloadSchemaMapping{},
		&models.FraudRiskConfiguration{},
		&models.FraudRiskAssessment{},
		&models.TransactionRepair{},
		&models.QueuedMessage{},
		&models.ResiliencyConfiguration{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
