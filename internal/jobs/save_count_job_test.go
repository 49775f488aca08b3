package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubReconciler struct {
	calls    int
	repaired int
	err      error
}

func (s *stubReconciler) ReconcileSaveCounts(context.Context) (int, error) {
	s.calls++
	return s.repaired, s.err
}

func TestNewScheduler(t *testing.T) {
	c, err := NewScheduler("0 3 * * *", &stubReconciler{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	c, err = NewScheduler("", &stubReconciler{}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, c.Entries())

	_, err = NewScheduler("every tuesday", &stubReconciler{}, zap.NewNop())
	assert.Error(t, err)
}

func TestReconcileSaveCountsJob(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reconciler := &stubReconciler{repaired: 3}

	ReconcileSaveCountsJob(reconciler, zap.New(core))()

	assert.Equal(t, 1, reconciler.calls)
	entries := logs.FilterMessage("save count reconciliation finished").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0].ContextMap()["repaired"])

	reconciler.err = errors.New("db down")
	ReconcileSaveCountsJob(reconciler, zap.New(core))()
	assert.Equal(t, 1, logs.FilterMessage("save count reconciliation failed").Len())
}
