package cron

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/prof-ratings/database"
	"go.uber.org/zap"
)

// SessionPruner drops expired search sessions
type SessionPruner interface {
	Prune() int
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron     *cron.Cron
	store    database.Storage
	sessions SessionPruner
	logger   *zap.Logger
	now      func() time.Time
}

// NewCronManager creates a new cron manager. sessions may be nil when the
// session store expires entries on its own (Redis).
func NewCronManager(store database.Storage, sessions SessionPruner, logger *zap.Logger) *CronManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DiscardLogger)))

	return &CronManager{
		cron:     c,
		store:    store,
		sessions: sessions,
		logger:   logger.Named("cron"),
		now:      time.Now,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	m.logger.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every minute: drop expired in-memory search sessions
	if m.sessions != nil {
		_, err := m.cron.AddFunc("0 * * * * *", func() {
			m.logJobStart("prune_search_sessions")
			m.PruneSearchSessions()
		})
		if err != nil {
			return err
		}
	}

	// 2. Every 5 minutes: check the database connection
	_, err := m.cron.AddFunc("0 */5 * * * *", func() {
		m.logJobStart("check_database")
		m.CheckDatabase()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 2 AM: log how many reviews came in over the last day
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("log_review_volume")
		m.LogReviewVolume()
	})
	if err != nil {
		return err
	}

	m.logger.Info("all cron jobs registered")
	return nil
}

func (m *CronManager) logJobStart(jobName string) {
	m.logger.Debug("job started", zap.String("job", jobName))
}

func (m *CronManager) logJobComplete(jobName string, fields ...zap.Field) {
	m.logger.Info("job completed", append([]zap.Field{zap.String("job", jobName)}, fields...)...)
}

func (m *CronManager) logJobError(jobName string, err error) {
	m.logger.Error("job failed", zap.String("job", jobName), zap.Error(err))
}
