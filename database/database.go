package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inkwell-api/logger"
	"inkwell-api/models"
)

// zapWriter adapts zap.Logger to the gorm logger.Writer interface
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

func Initialize(databaseURL string) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		&zapWriter{logger: logger.Get()},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.PostMedia{},
		&models.Comment{},
		&models.CommentInteraction{},
		&models.CommentReport{},
		&models.Media{},
		&models.AnalyticsEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	// The interaction and report ledgers already carry composite unique
	// indexes from their model tags. The join tables get theirs here, plus a
	// lookup index for the comment tree.

	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uk_post_tags_post_tag ON post_tags(post_id, tag_id)").Error; err != nil {
		logger.Get().Warn("could not add unique index for post_tags", zap.Error(err))
	}

	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uk_post_media_post_media ON post_media(post_id, media_id)").Error; err != nil {
		logger.Get().Warn("could not add unique index for post_media", zap.Error(err))
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_parent ON comments(post_id, parent_id)").Error; err != nil {
		logger.Get().Warn("could not add index for comments", zap.Error(err))
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_analytics_events_post_type ON analytics_events(post_id, event_type)").Error; err != nil {
		logger.Get().Warn("could not add index for analytics_events", zap.Error(err))
	}

	return nil
}

// SeedData creates a default admin account on an empty database so a fresh
// deployment can be administered immediately.
func SeedData(db *gorm.DB) error {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	logger.Get().Info("seeded default admin user", zap.String("email", admin.Email))
	return nil
}
