package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/entities"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
)

// NewDatabase opens an isolated in-memory SQLite database with every entity migrated.
func NewDatabase(t *testing.T) *transaction.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name),
		}),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(entities.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return transaction.NewDatabase(db)
}
