package cron

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/prof-ratings/database/dbtest"
	"github.com/sahilchouksey/prof-ratings/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingPruner struct{ calls, removed int }

func (p *countingPruner) Prune() int {
	p.calls++
	return p.removed
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	// no store: its connection pool goroutines outlive the test body
	m := NewCronManager(nil, &countingPruner{}, zap.NewNop())
	require.NoError(t, m.Start())
	assert.Len(t, m.cron.Entries(), 3)
	m.Stop()
}

func TestNoPruneJobWithoutPruner(t *testing.T) {
	m := NewCronManager(nil, nil, zap.NewNop())
	require.NoError(t, m.registerJobs())
	assert.Len(t, m.cron.Entries(), 2)
}

func TestPruneSearchSessions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	pruner := &countingPruner{removed: 4}
	m := NewCronManager(nil, pruner, zap.New(core))

	m.PruneSearchSessions()
	assert.Equal(t, 1, pruner.calls)

	entries := logs.FilterMessage("job completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["removed"])
}

func TestLogReviewVolume(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	now := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for _, created := range []time.Time{now.Add(-time.Hour), now.Add(-23 * time.Hour), now.Add(-48 * time.Hour)} {
		require.NoError(t, store.CreateReview(ctx, &model.Review{
			CreatedAt:   created,
			ProfessorID: f.Smith.ID,
			CourseID:    f.COP3530.ID,
			Rating:      4,
			Difficulty:  2,
		}))
	}

	core, logs := observer.New(zapcore.InfoLevel)
	m := NewCronManager(store, nil, zap.New(core))
	m.now = func() time.Time { return now }

	m.LogReviewVolume()
	entries := logs.FilterMessage("job completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "log_review_volume", entries[0].ContextMap()["job"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["reviews"])
}

func TestCheckDatabaseFailure(t *testing.T) {
	store := dbtest.NewStore(t)
	require.NoError(t, store.Close())

	core, logs := observer.New(zapcore.ErrorLevel)
	m := NewCronManager(store, nil, zap.New(core))

	m.CheckDatabase()
	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
}
