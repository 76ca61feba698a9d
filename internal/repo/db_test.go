package repo

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/minixhq/minix-backend/internal/domain"
)

// testDB opens an isolated in-memory database with the full schema applied.
func testDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// setMessageTime pins a message's created_at so ordering tests are exact.
func setMessageTime(t *testing.T, db *gorm.DB, id string, at time.Time) {
	t.Helper()
	if err := db.Model(&domain.Message{}).Where("id = ?", id).
		Update("created_at", at).Error; err != nil {
		t.Fatalf("set message time: %v", err)
	}
}
