// Package sqlite implements core.Store on an embedded SQLite database
// through gorm. It serves local development and the test suites.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// dateLayout is how sale dates are stored; it sorts lexically.
const dateLayout = "2006-01-02"

// moneyScale is applied to summed and averaged money. SQLite aggregates
// NUMERIC columns as REAL, and rounding here removes float noise.
const moneyScale = 6

// saleRow is the sales table.
type saleRow struct {
	ID        string          `gorm:"primaryKey;type:text"`
	SaleDate  string          `gorm:"type:text;not null;index"`
	Product   string          `gorm:"not null;index"`
	Category  string          `gorm:"not null;index"`
	Region    string          `gorm:"not null;index"`
	Quantity  int64           `gorm:"not null;check:chk_sales_quantity,quantity >= 0"`
	Price     decimal.Decimal `gorm:"type:numeric;not null;check:chk_sales_price,price >= 0"`
	Revenue   decimal.Decimal `gorm:"type:numeric;not null;check:chk_sales_revenue,revenue >= 0"`
	CreatedAt time.Time
}

func (saleRow) TableName() string { return "sales" }

// uploadRow is the upload_log table.
type uploadRow struct {
	ID        string `gorm:"primaryKey;type:text"`
	FileName  string `gorm:"not null"`
	Format    string `gorm:"not null"`
	Inserted  int    `gorm:"not null"`
	Total     int    `gorm:"not null"`
	Errors    int    `gorm:"not null"`
	IPAddress string `gorm:"not null;default:''"`
	UserAgent string `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"index"`
}

func (uploadRow) TableName() string { return "upload_log" }

// Store is a core.Store backed by gorm and SQLite.
type Store struct {
	db *gorm.DB
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and, when migrate
// is set, brings the schema up to date. Use ":memory:" for a throwaway store.
func Open(path string, migrate bool) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	sqlDB.SetMaxOpenConns(1)

	if migrate {
		if err := db.AutoMigrate(&saleRow{}, &uploadRow{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertMany inserts records in one transaction, each under its own
// savepoint, so a refused row does not discard the others.
func (s *Store) InsertMany(ctx context.Context, records []core.SalesRecord) (core.BatchResult, error) {
	var res core.BatchResult
	if len(records) == 0 {
		return res, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range records {
			savepoint := fmt.Sprintf("sp_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return fmt.Errorf("create savepoint: %w", err)
			}
			row := toSaleRow(rec)
			if err := tx.Create(&row).Error; err != nil {
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return fmt.Errorf("rollback savepoint: %w", rbErr)
				}
				res.Failures = append(res.Failures, core.ItemError{Index: i, Err: err})
				continue
			}
			res.Succeeded++
		}
		return nil
	})
	if err != nil {
		return core.BatchResult{}, fmt.Errorf("insert sales: %w", err)
	}
	return res, nil
}

func toSaleRow(r core.SalesRecord) saleRow {
	return saleRow{
		ID:       r.ID.String(),
		SaleDate: r.Date.UTC().Format(dateLayout),
		Product:  r.Product,
		Category: r.Category,
		Region:   r.Region,
		Quantity: r.Quantity,
		Price:    r.Price,
		Revenue:  r.Revenue,
	}
}
