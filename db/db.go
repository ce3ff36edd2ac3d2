package db

import (
	"context"
	"fmt"
	"time"

	"gamegscore/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// tables lists every model owned by the review store
var tables = []interface{}{&models.User{}, &models.Review{}}

// InitDB opens the PostgreSQL connection and optionally migrates the schema
func InitDB(dsn string, autoMigrate bool) error {
	conn, err := Open(postgres.Open(dsn))
	if err != nil {
		return err
	}
	DB = conn

	if autoMigrate {
		if err := CreateTables(DB); err != nil {
			return err
		}
	}
	return nil
}

// Open connects through any gorm dialector
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return conn, nil
}

// CreateTables migrates every table, creating the missing ones
func CreateTables(conn *gorm.DB) error {
	if err := conn.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// ResetDatabase drops every table and creates them again empty
func ResetDatabase(conn *gorm.DB) error {
	if err := conn.Migrator().DropTable(tables...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return CreateTables(conn)
}

// Ping checks that the database answers within the timeout
func Ping(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
