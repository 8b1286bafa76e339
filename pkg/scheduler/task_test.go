package scheduler

import (
	"context"
	"testing"
	"time"

	"StockReview/pkg/config"
	"StockReview/pkg/kvstore"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/service"
)

func TestJobs(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	db := recordstore.NewMemory()
	defer db.Close()
	svcs := service.New(db, kvstore.NewMemory(), service.Options{Clock: func() time.Time { return clock }})

	rec, err := svcs.Export.ExportKnowledge(ctx, "markdown")
	if err != nil {
		t.Fatal(err)
	}
	share, _ := svcs.Export.ShareExport(ctx, rec.ID, time.Minute)

	s := NewScheduler(svcs, config.SchedulerConfig{})
	clock = clock.Add(time.Hour)
	s.purgeShares()
	if _, err := svcs.Export.GetSharedExport(ctx, share.Token); !service.IsNotFound(err) {
		t.Errorf("share after purge: %v", err)
	}
	if n, _ := db.Count(ctx, recordstore.SharedExports); n != 0 {
		t.Errorf("shared exports = %d, want 0", n)
	}

	s.stampSync()
	if got, ok := svcs.User.GetLastSyncTime(); !ok || !got.Equal(clock) {
		t.Errorf("last sync = %v, %v", got, ok)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	db := recordstore.NewMemory()
	defer db.Close()
	svcs := service.New(db, kvstore.NewMemory(), service.Options{})

	s := NewScheduler(svcs, config.SchedulerConfig{CleanupSpec: "not a spec"})
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() accepted an invalid cron spec")
	}

	s = NewScheduler(svcs, config.SchedulerConfig{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}
