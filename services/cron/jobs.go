package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PruneSearchSessions removes search sessions idle past their TTL
func (m *CronManager) PruneSearchSessions() {
	const jobName = "prune_search_sessions"
	removed := m.sessions.Prune()
	m.logJobComplete(jobName, zap.Int("removed", removed))
}

// CheckDatabase pings the database so an outage shows up in the logs even
// when no requests arrive
func (m *CronManager) CheckDatabase() {
	const jobName = "check_database"
	if err := m.store.HealthCheck(); err != nil {
		m.logJobError(jobName, fmt.Errorf("database ping failed: %w", err))
		return
	}
	m.logJobComplete(jobName)
}

// LogReviewVolume logs the number of reviews submitted in the last 24 hours
func (m *CronManager) LogReviewVolume() {
	const jobName = "log_review_volume"
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	since := m.now().Add(-24 * time.Hour)
	count, err := m.store.CountReviewsSince(ctx, since)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count reviews: %w", err))
		return
	}
	m.logJobComplete(jobName, zap.Int64("reviews", count), zap.Time("since", since))
}
