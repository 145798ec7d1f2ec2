package jobs

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

const defaultSweepInterval = time.Minute

// ScheduledPublisher promotes scheduled posts whose time has come. Each
// sweep is one idempotent UPDATE, so overlapping or repeated sweeps
// never double-publish. Promotion does not fan out notifications.
type ScheduledPublisher struct {
	db       *gorm.DB
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewScheduledPublisher(db *gorm.DB) *ScheduledPublisher {
	return &ScheduledPublisher{
		db:       db,
		interval: defaultSweepInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// WithInterval overrides the sweep period. Call before Start.
func (p *ScheduledPublisher) WithInterval(d time.Duration) *ScheduledPublisher {
	if d > 0 {
		p.interval = d
	}
	return p
}

// Start launches the sweep loop in its own goroutine.
func (p *ScheduledPublisher) Start() {
	go p.run()
}

// Stop terminates the loop and waits for the in-flight sweep to finish.
func (p *ScheduledPublisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	<-p.doneCh
}

func (p *ScheduledPublisher) run() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if n, err := p.Sweep(time.Now()); err != nil {
				utils.Sugar.Errorw("scheduled publish sweep failed", "error", err)
			} else if n > 0 {
				utils.Sugar.Infow("scheduled posts published", "count", n)
			}
		}
	}
}

// Sweep publishes every post that is due at the given time and returns
// how many rows it promoted.
func (p *ScheduledPublisher) Sweep(now time.Time) (int64, error) {
	res := p.db.Model(&models.Post{}).
		Where("is_draft = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ? AND published_at IS NULL",
			false, now).
		Update("published_at", now)
	return res.RowsAffected, res.Error
}
