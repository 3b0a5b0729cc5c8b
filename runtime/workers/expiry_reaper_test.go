package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"ephemeral-chat/mocks"
	"ephemeral-chat/observability"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestExpiryReaper_Sweep_Counts_Removed_Messages(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sweeper := mocks.NewMockExpiredMessageSweeper(ctrl)
	metrics := observability.NewMetrics()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reaper := NewExpiryReaper(sweeper, time.Hour, "", metrics, log)
	reaper.now = func() time.Time { return now }

	// Given 1234 expired messages at that instant
	sweeper.EXPECT().DeleteExpired(now).Return(1234, nil).Times(1)

	// When a sweep runs
	removed := reaper.Sweep()

	// Then the count is reported and recorded
	req.Equal(1234, removed)
	req.Equal(1234.0, testutil.ToFloat64(metrics.MessagesExpired))
	req.Equal(1.0, testutil.ToFloat64(metrics.ReaperRuns.WithLabelValues("success")))
}

func TestExpiryReaper_Failed_Sweep_Is_Counted(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sweeper := mocks.NewMockExpiredMessageSweeper(ctrl)
	metrics := observability.NewMetrics()

	reaper := NewExpiryReaper(sweeper, time.Hour, "", metrics, log)

	sweeper.EXPECT().DeleteExpired(gomock.Any()).Return(2, fmt.Errorf("disk full")).Times(1)

	removed := reaper.Sweep()

	req.Equal(2, removed)
	req.Equal(1.0, testutil.ToFloat64(metrics.ReaperRuns.WithLabelValues("failure")))
	req.Equal(0.0, testutil.ToFloat64(metrics.ReaperRuns.WithLabelValues("success")))
}

func TestExpiryReaper_Run_Sweeps_On_Every_Tick(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sweeper := mocks.NewMockExpiredMessageSweeper(ctrl)

	var runs atomic.Int32
	sweeper.EXPECT().DeleteExpired(gomock.Any()).
		DoAndReturn(func(time.Time) (int, error) {
			runs.Add(1)
			return 0, nil
		}).AnyTimes()

	reaper := NewExpiryReaper(sweeper, 20*time.Millisecond, "", nil, log)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	// When the reaper runs until its context ends
	err := reaper.Run(ctx)

	// Then it swept at start and on several ticks, and stopped on cancellation
	req.ErrorIs(err, context.DeadlineExceeded)
	req.GreaterOrEqual(runs.Load(), int32(3))
}

func TestExpiryReaper_Cron_Mode_Stops_On_Cancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	sweeper := mocks.NewMockExpiredMessageSweeper(ctrl)

	// Given an hourly cron, only the start-up sweep happens within the test
	sweeper.EXPECT().DeleteExpired(gomock.Any()).Return(0, nil).Times(1)

	reaper := NewExpiryReaper(sweeper, time.Hour, "0 * * * *", nil, log)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req.ErrorIs(reaper.Run(ctx), context.DeadlineExceeded)
}
