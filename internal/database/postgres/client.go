package postgres

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenGorm открывает gorm поверх уже созданного пула sqlx,
// чтобы обе части хранилища работали с одними соединениями
func OpenGorm(db *sqlx.DB, logger *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации GORM: %w", err)
	}
	logger.Info("GORM initialized over shared connection pool")
	return gdb, nil
}
