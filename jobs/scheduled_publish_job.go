package jobs

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-api/logger"
	"inkwell-api/models"
)

// ScheduledPublishJob periodically promotes scheduled posts whose publish
// time has arrived to the published state.
type ScheduledPublishJob struct {
	db     *gorm.DB
	ticker *time.Ticker
	done   chan bool
}

func NewScheduledPublishJob(db *gorm.DB, interval time.Duration) *ScheduledPublishJob {
	return &ScheduledPublishJob{
		db:     db,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
	}
}

// Start begins the publish loop. It runs once immediately, then on every
// tick until Stop is called.
func (j *ScheduledPublishJob) Start() {
	logger.Get().Info("scheduled publish job started")

	go func() {
		j.publishDue()

		for {
			select {
			case <-j.ticker.C:
				j.publishDue()
			case <-j.done:
				logger.Get().Info("scheduled publish job stopped")
				return
			}
		}
	}()
}

func (j *ScheduledPublishJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

// publishDue flips every due scheduled post in a single relative UPDATE so
// concurrent editors never see a half-applied transition.
func (j *ScheduledPublishJob) publishDue() {
	result := j.db.Model(&models.Post{}).
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?",
			models.PostScheduled, time.Now()).
		Update("status", models.PostPublished)
	if result.Error != nil {
		logger.Get().Error("scheduled publish sweep failed", zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		logger.Get().Info("published scheduled posts", zap.Int64("count", result.RowsAffected))
	}
}
