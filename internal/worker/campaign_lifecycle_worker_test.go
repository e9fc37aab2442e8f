package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"

	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(&logger.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	os.Exit(m.Run())
}

type fakeLifecycle struct {
	mu        sync.Mutex
	drafts    []campmodels.Campaign
	actives   []campmodels.Campaign
	activated []primitive.ObjectID
	completed []primitive.ObjectID
	failID    primitive.ObjectID
	panicID   primitive.ObjectID
	dueErr    error
	calls     int
	lastNow   int64
}

func (f *fakeLifecycle) DueForActivation(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastNow = nowMs
	return f.drafts, f.dueErr
}

func (f *fakeLifecycle) DueForCompletion(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error) {
	return f.actives, nil
}

func (f *fakeLifecycle) ActivateCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error) {
	if c.ID == f.failID {
		return nil, errors.New("conflict")
	}
	if c.ID == f.panicID {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, c.ID)
	return c, nil
}

func (f *fakeLifecycle) CompleteCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, c.ID)
	return c, nil
}

func campaigns(n int) []campmodels.Campaign {
	out := make([]campmodels.Campaign, n)
	for i := range out {
		out[i].ID = primitive.NewObjectID()
	}
	return out
}

func TestRunOnce(t *testing.T) {
	drafts := campaigns(5)
	fake := &fakeLifecycle{drafts: drafts, actives: campaigns(3), failID: drafts[1].ID, panicID: drafts[2].ID}
	w := NewCampaignLifecycleWorker(fake, time.Minute, 2)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	w.SetClock(func() time.Time { return now })

	stats := w.RunOnce(context.Background())
	assert.Equal(t, RunStats{Activated: 3, Completed: 3, Failed: 2}, stats)
	assert.Len(t, fake.activated, 3)
	assert.Equal(t, now.UnixMilli(), fake.lastNow)
}

func TestRunOnceDueError(t *testing.T) {
	fake := &fakeLifecycle{dueErr: errors.New("mongo down"), actives: campaigns(1)}
	stats := NewCampaignLifecycleWorker(fake, time.Minute, 1).RunOnce(context.Background())
	assert.Equal(t, RunStats{Completed: 1}, stats)
}

func TestStartStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fake := &fakeLifecycle{drafts: campaigns(1)}
	w := NewCampaignLifecycleWorker(fake, time.Second, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.calls >= 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker không dừng khi ctx bị huỷ")
	}
}
