package database

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

func SetupDatabase(cfg config.Database, dev bool) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormCfg := &gorm.Config{TranslateError: true}
	if !dev {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(), // data source name
			DefaultStringSize:         256,       // default size for string fields
			DisableDatetimePrecision:  true,      // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,      // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,      // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false,     // auto configure based on currently MySQL version
		}), gormCfg)
		if err == nil {
			if merr := db.AutoMigrate(
				&models.User{},
				&models.AuthProvider{},
				&models.RefreshToken{},
				&models.Category{},
				&models.Sprite{},
				&models.AssetPack{},
			); merr != nil {
				log.Printf("AutoMigrate failed: %v", merr)
				return nil, merr
			}

			return db, nil
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	return nil, err
}
