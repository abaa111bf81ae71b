package db

import (
	"os"
	"sync"
	"testing"
	"time"

	"device-lending-api/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testDBOnce sync.Once
	testDBConn *gorm.DB
	testDBErr  error
)

// testDB opens (once) and wipes the integration database. Tests that need
// postgres are skipped unless TEST_POSTGRES_DSN points at a disposable
// database, e.g.
//
//	TEST_POSTGRES_DSN="host=localhost user=postgres password=postgres dbname=lending_test port=5432 sslmode=disable"
func testDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	testDBOnce.Do(func() {
		testDBConn, testDBErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if testDBErr == nil {
			testDBErr = Migrate(testDBConn)
		}
	})
	if testDBErr != nil {
		tb.Fatalf("open test database: %v", testDBErr)
	}
	if err := testDBConn.Exec(
		"TRUNCATE transactions, list_items, borrow_lists, devices, users CASCADE",
	).Error; err != nil {
		tb.Fatalf("truncate: %v", err)
	}
	return testDBConn
}

func testRepo(tb testing.TB) *Repo {
	tb.Helper()
	return NewRepo(testDB(tb))
}

// pinClock freezes the repo's clock for deadline assertions.
func pinClock(r *Repo, at time.Time) { r.now = func() time.Time { return at } }

func seedUser(tb testing.TB, db *gorm.DB, username string, admin bool) *models.User {
	tb.Helper()
	u := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.edu.vn",
		FullName: "Test " + username,
		IsAdmin:  admin,
	}
	if err := u.SetPassword("secret-pass"); err != nil {
		tb.Fatalf("seed user password: %v", err)
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedDevice(tb testing.TB, db *gorm.DB, serial string) *models.Device {
	tb.Helper()
	d := &models.Device{
		ID:     uuid.NewString(),
		Name:   "Device " + serial,
		Serial: models.NormalizeSerial(serial),
		Status: models.DeviceAvailable,
	}
	applyDeviceDefaults(d)
	if err := db.Create(d).Error; err != nil {
		tb.Fatalf("seed device %s: %v", serial, err)
	}
	return d
}
