package db

import (
	"fmt"

	"device-lending-api/config"
	"device-lending-api/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port,
	)
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Device{},
		&models.BorrowList{},
		&models.ListItem{},
		&models.Transaction{},
	); err != nil {
		return err
	}

	// 每个用户最多一张 Pending 购物单，enforced in the store, not by
	// application convention.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_pending_per_user
	  ON %s (user_id)
	  WHERE status = 'Pending';
	`, models.BorrowListTable, models.BorrowListTable)).Error; err != nil {
		return err
	}

	// Admin queue scans by status are frequent.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_created_at
	  ON %s (status, created_at DESC);
	`, models.BorrowListTable, models.BorrowListTable)).Error; err != nil {
		return err
	}

	return nil
}
