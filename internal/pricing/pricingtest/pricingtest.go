// Package pricingtest holds fixtures shared by pricing tests.
package pricingtest

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns an isolated in-memory database with the pricing schema and
// any extra models migrated.
func OpenDB(t *testing.T, extra ...any) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	models := append(domain.Models(), extra...)
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return node
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

func IntPtr(v int) *int {
	return &v
}

// VersionRequest is a small valid authoring request: base 10, one doubling
// factor keyed on slot priority, and two time slots.
func VersionRequest() domain.VersionRequest {
	return domain.VersionRequest{
		BasePrice:     DecPtr("10"),
		TokenUsdPrice: DecPtr("0.04"),
		Factors: []domain.FactorRequest{
			{
				Name:     "Slot Priority",
				Key:      domain.FieldSlotPriority,
				Type:     domain.FactorMultiplier,
				Enabled:  true,
				Priority: IntPtr(5),
				Value:    DecPtr("1"),
				Config:   domain.LookupTable{"HIGH": Dec("2")},
			},
		},
		TimeSlots: []domain.TimeSlotRequest{
			{Name: "Morning Peak", StartTime: "08:00", EndTime: "11:00", Multiplier: DecPtr("1.5"), Priority: IntPtr(1)},
			{Name: "Late Night", StartTime: "00:00", EndTime: "04:00", Multiplier: DecPtr("0.5"), Priority: IntPtr(2)},
		},
	}
}
