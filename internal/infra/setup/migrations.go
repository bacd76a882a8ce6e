package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scrum-and-tell/internal/domain"
)

// MigrateDB handles all database migrations using the provided GORM DB instance.
// users/rooms 表使用自定义 SQL 创建（TEXT/BLOB 列的索引需要显式长度），
// 其余模型交给 AutoMigrate。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := migrateUsersTable(db); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	if err := migrateRoomsTable(db); err != nil {
		return fmt.Errorf("failed to migrate rooms table: %w", err)
	}

	err := db.AutoMigrate(
		&domain.Meeting{},
		&domain.Turn{},
		&domain.SpeakerUpdate{},
		&domain.ActionItem{},
		&domain.MeetingSummary{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// migrateUsersTable 处理 users 表的创建或增量更新
func migrateUsersTable(db *gorm.DB) error {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'users'").Count(&count)

	if count == 0 {
		sql := `
	CREATE TABLE users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL,
		password TEXT NOT NULL,
		email VARCHAR(191),
		created_at DATETIME(3),
		updated_at DATETIME(3),
		UNIQUE INDEX idx_username (username),
		UNIQUE INDEX idx_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
	`
		if err := db.Exec(sql).Error; err != nil {
			logrus.Errorf("Failed to create users table: %v", err)
			return fmt.Errorf("failed to create users table: %w", err)
		}
		logrus.Info("Users table created successfully")
		return nil
	}

	// 已存在时让 AutoMigrate 补齐新列/索引
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		logrus.Errorf("Failed to auto-migrate User table: %v", err)
		return fmt.Errorf("failed to migrate user table: %w", err)
	}
	logrus.Info("Users table schema checked/updated successfully")
	return nil
}

// migrateRoomsTable 处理 rooms 表的创建或增量更新
func migrateRoomsTable(db *gorm.DB) error {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'rooms'").Count(&count)

	if count == 0 {
		sql := `
	CREATE TABLE rooms (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		owner_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(191) NOT NULL,
		goal TEXT,
		context TEXT,
		invite_code VARCHAR(191) NOT NULL,
		created_at DATETIME(3),
		last_active DATETIME(3),
		updated_at DATETIME(3),
		INDEX idx_owner_id (owner_id),
		INDEX idx_last_active (last_active),
		UNIQUE INDEX idx_invite_code (invite_code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
	`
		if err := db.Exec(sql).Error; err != nil {
			logrus.Errorf("Failed to create rooms table: %v", err)
			return fmt.Errorf("failed to create rooms table: %w", err)
		}
		logrus.Info("Rooms table created successfully")
		return nil
	}

	if err := db.AutoMigrate(&domain.Room{}); err != nil {
		logrus.Errorf("Failed to auto-migrate Room table: %v", err)
		return fmt.Errorf("failed to migrate room table: %w", err)
	}
	logrus.Info("Rooms table schema checked/updated successfully")
	return nil
}
