package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCenter() (*Center, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewCenter(3*time.Second, WithClock(clock.Now)), clock
}

func TestCenterRecordsToasts(t *testing.T) {
	center, clock := newTestCenter()

	center.Warn("Anna is already in contacts.")
	center.Success("Contact Boris is added!")

	active := center.Active()
	require.Len(t, active, 2)
	assert.Equal(t, LevelWarning, active[0].Level)
	assert.Equal(t, "Anna is already in contacts.", active[0].Message)
	assert.Equal(t, LevelSuccess, active[1].Level)
	assert.NotEqual(t, active[0].ID, active[1].ID)
	assert.Equal(t, clock.Now().Add(3*time.Second), active[0].ExpiresAt)
}

func TestCenterAutoCloses(t *testing.T) {
	center, clock := newTestCenter()

	center.Success("first")
	clock.Advance(2 * time.Second)
	center.Success("second")

	clock.Advance(time.Second)
	active := center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)
	assert.Equal(t, 2*time.Second, active[0].Remaining(clock.Now()))

	clock.Advance(2 * time.Second)
	assert.Empty(t, center.Active())
}

func TestCenterSubscribers(t *testing.T) {
	center, _ := newTestCenter()

	var got []Toast
	cancel := center.Subscribe(func(toast Toast) {
		got = append(got, toast)
	})

	center.Warn("one")
	cancel()
	center.Warn("two")

	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Message)
}

func TestCenterSetAutoClose(t *testing.T) {
	center, clock := newTestCenter()

	center.SetAutoClose(0)
	assert.Equal(t, 3*time.Second, center.AutoClose())

	center.SetAutoClose(10 * time.Second)
	center.Success("long")
	clock.Advance(5 * time.Second)
	assert.Len(t, center.Active(), 1)
}

func TestNewCenterDefault(t *testing.T) {
	assert.Equal(t, DefaultAutoClose, NewCenter(0).AutoClose())
}

func TestToastRemainingNeverNegative(t *testing.T) {
	now := time.Now()
	toast := Toast{ExpiresAt: now.Add(-time.Second)}
	assert.Zero(t, toast.Remaining(now))
	assert.True(t, toast.Expired(now))
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	var n Notifier = &rec

	n.Warn("w")
	n.Success("s")

	assert.Equal(t, []Message{
		{Level: LevelWarning, Text: "w"},
		{Level: LevelSuccess, Text: "s"},
	}, rec.Messages())
}

func TestCenterConcurrentUse(t *testing.T) {
	center := NewCenter(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				center.Success("x")
				_ = center.Active()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, center.Active(), 100)
}
