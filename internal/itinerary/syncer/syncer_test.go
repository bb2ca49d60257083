package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

type recordingPersister struct {
	mu       sync.Mutex
	calls    []*model.ScheduleData
	version  int64
	err      error
	block    chan struct{}
	started  chan struct{}
	startOne bool
}

func (p *recordingPersister) Persist(ctx context.Context, tripID string, data *model.ScheduleData) (int64, error) {
	p.mu.Lock()
	started := p.startOne
	p.startOne = false
	p.mu.Unlock()

	if started && p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, data.Clone())
	if p.err != nil {
		return 0, p.err
	}
	p.version++
	return p.version, nil
}

func (p *recordingPersister) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *recordingPersister) lastCall() *model.ScheduleData {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"})
}

func snapshotWithDays(n int) *model.ScheduleData {
	data := &model.ScheduleData{}
	for i := 0; i < n; i++ {
		data.Days = append(data.Days, model.ScheduleDay{DayID: "day-0"})
	}
	return data
}

func waitForCalls(t *testing.T, p *recordingPersister, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.callCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d persist calls, got %d", want, p.callCount())
}

func TestBurstOfMutationsCoalescesIntoSingleSave(t *testing.T) {
	p := &recordingPersister{}
	c := NewController("trip-1", 30*time.Millisecond, p, testLogger())
	defer c.Close()

	for i := 1; i <= 10; i++ {
		c.Notify(snapshotWithDays(i))
		time.Sleep(2 * time.Millisecond)
	}

	waitForCalls(t, p, 1)
	time.Sleep(100 * time.Millisecond)

	if got := p.callCount(); got != 1 {
		t.Fatalf("expected exactly 1 persist call, got %d", got)
	}
	if got := len(p.lastCall().Days); got != 10 {
		t.Errorf("expected final snapshot with 10 days, got %d", got)
	}
}

func TestMutationDuringSaveTriggersExactlyOneFollowUp(t *testing.T) {
	p := &recordingPersister{
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
		startOne: true,
	}
	c := NewController("trip-1", 10*time.Millisecond, p, testLogger())
	defer c.Close()

	c.Notify(snapshotWithDays(1))

	// Wait until the first save is in flight, then mutate twice while it runs.
	<-p.started
	c.Notify(snapshotWithDays(2))
	c.Notify(snapshotWithDays(3))
	close(p.block)

	waitForCalls(t, p, 2)
	time.Sleep(100 * time.Millisecond)

	if got := p.callCount(); got != 2 {
		t.Fatalf("expected exactly 2 persist calls, got %d", got)
	}
	if got := len(p.lastCall().Days); got != 3 {
		t.Errorf("follow-up save should carry the latest snapshot, got %d days", got)
	}
}

func TestSaveNowBypassesTimer(t *testing.T) {
	p := &recordingPersister{}
	c := NewController("trip-1", time.Hour, p, testLogger())
	defer c.Close()

	c.Notify(snapshotWithDays(4))

	version, err := c.SaveNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
	if got := p.callCount(); got != 1 {
		t.Fatalf("expected 1 persist call, got %d", got)
	}

	// No pending work: the hour-long timer must not fire another save.
	time.Sleep(50 * time.Millisecond)
	if got := p.callCount(); got != 1 {
		t.Errorf("expected no additional saves, got %d total", got)
	}
}

func TestMutationDuringSaveNowIsNotLost(t *testing.T) {
	p := &recordingPersister{
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
		startOne: true,
	}
	c := NewController("trip-1", 30*time.Millisecond, p, testLogger())
	defer c.Close()

	c.Notify(snapshotWithDays(1))

	versionCh := make(chan int64, 1)
	go func() {
		version, err := c.SaveNow(context.Background())
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		versionCh <- version
	}()

	// Mutate while the manual save is in flight, then let it finish. The edit
	// must not sit in memory until some future unrelated mutation arrives.
	<-p.started
	c.Notify(snapshotWithDays(2))
	close(p.block)

	if version := <-versionCh; version != 1 {
		t.Errorf("expected version 1 from the manual save, got %d", version)
	}

	waitForCalls(t, p, 2)
	time.Sleep(100 * time.Millisecond)

	if got := p.callCount(); got != 2 {
		t.Fatalf("expected exactly 2 persist calls, got %d", got)
	}
	if got := len(p.lastCall().Days); got != 2 {
		t.Errorf("follow-up save should carry the edit made during SaveNow, got %d days", got)
	}
}

func TestSaveNowWithoutMutationsReturnsLastVersion(t *testing.T) {
	p := &recordingPersister{}
	c := NewController("trip-1", time.Hour, p, testLogger())
	defer c.Close()

	version, err := c.SaveNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 before any save, got %d", version)
	}
	if got := p.callCount(); got != 0 {
		t.Errorf("expected no persist calls, got %d", got)
	}
}

func TestFailedSaveIsNotRetried(t *testing.T) {
	p := &recordingPersister{err: errors.New("write conflict")}
	var handled error
	var handledMu sync.Mutex
	c := NewController("trip-1", 10*time.Millisecond, p, testLogger(),
		WithErrorHandler(func(err error) {
			handledMu.Lock()
			handled = err
			handledMu.Unlock()
		}),
	)
	defer c.Close()

	c.Notify(snapshotWithDays(1))
	waitForCalls(t, p, 1)
	time.Sleep(100 * time.Millisecond)

	if got := p.callCount(); got != 1 {
		t.Fatalf("failed save must not be retried, got %d calls", got)
	}
	handledMu.Lock()
	defer handledMu.Unlock()
	if handled == nil {
		t.Error("expected error handler to be invoked")
	}
}

func TestCloseStopsPendingSave(t *testing.T) {
	p := &recordingPersister{}
	c := NewController("trip-1", 50*time.Millisecond, p, testLogger())

	c.Notify(snapshotWithDays(1))
	c.Close()

	time.Sleep(120 * time.Millisecond)
	if got := p.callCount(); got != 0 {
		t.Errorf("expected no saves after Close, got %d", got)
	}

	if _, err := c.SaveNow(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from SaveNow after Close, got %v", err)
	}
}
