package mysql

import (
	"context"
	"time"

	"github.com/samber/oops"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"authgate/internal/platform"
)

func New(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, oops.In("mysql").Wrapf(err, "open mysql failed")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, oops.In("mysql").Wrapf(err, "get mysql sql db failed")
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	err = platform.Connect(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, oops.In("mysql").Wrapf(err, "ping mysql failed")
	}

	return db, nil
}
