package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls map[string][]int
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string][]int)}
}

func (r *recorder) record(key string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[key] = append(r.calls[key], v)
}

func (r *recorder) get(key string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls[key]...)
}

func TestTrigger_CoalescesSameKey(t *testing.T) {
	rec := newRecorder()
	d := New[int](50*time.Millisecond, rec.record)

	for i := 1; i <= 5; i++ {
		coalesced, err := d.Trigger("A101", i)
		require.NoError(t, err)
		assert.Equal(t, i > 1, coalesced)
	}

	assert.Eventually(t, func() bool { return len(rec.get("A101")) == 1 }, time.Second, 5*time.Millisecond)

	// 窗口结束后不应再有额外执行
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []int{5}, rec.get("A101"))
	assert.Equal(t, 0, d.Pending())
}

func TestTrigger_KeysAreIndependent(t *testing.T) {
	rec := newRecorder()
	d := New[int](30*time.Millisecond, rec.record)

	_, _ = d.Trigger("A101", 1)
	_, _ = d.Trigger("B202", 2)
	_, _ = d.Trigger("A101", 3)

	assert.Eventually(t, func() bool {
		return len(rec.get("A101")) == 1 && len(rec.get("B202")) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{3}, rec.get("A101"))
	assert.Equal(t, []int{2}, rec.get("B202"))
}

func TestTrigger_SeparateWindowsFireSeparately(t *testing.T) {
	rec := newRecorder()
	d := New[int](20*time.Millisecond, rec.record)

	_, _ = d.Trigger("A101", 1)
	assert.Eventually(t, func() bool { return len(rec.get("A101")) == 1 }, time.Second, 5*time.Millisecond)

	_, _ = d.Trigger("A101", 2)
	assert.Eventually(t, func() bool { return len(rec.get("A101")) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{1, 2}, rec.get("A101"))
}

func TestFlush_RunsPendingImmediately(t *testing.T) {
	rec := newRecorder()
	d := New[int](time.Hour, rec.record)

	_, _ = d.Trigger("A101", 7)
	_, _ = d.Trigger("B202", 8)
	assert.Equal(t, 2, d.Pending())

	d.Flush()

	assert.Equal(t, []int{7}, rec.get("A101"))
	assert.Equal(t, []int{8}, rec.get("B202"))
	assert.Equal(t, 0, d.Pending())
}

func TestClose_RejectsNewTriggers(t *testing.T) {
	rec := newRecorder()
	d := New[int](time.Hour, rec.record)

	_, _ = d.Trigger("A101", 1)
	d.Close()

	assert.Equal(t, []int{1}, rec.get("A101"))

	_, err := d.Trigger("A101", 2)
	assert.ErrorIs(t, err, ErrClosed)
}

// slowSaver 模拟耗时保存，记录执行顺序与同 key 并发度
type slowSaver struct {
	mu       sync.Mutex
	order    []int
	inFlight int
	maxIn    int
	started  chan int
	delay    time.Duration
}

func newSlowSaver(delay time.Duration) *slowSaver {
	return &slowSaver{started: make(chan int, 16), delay: delay}
}

func (s *slowSaver) save(_ string, v int) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxIn {
		s.maxIn = s.inFlight
	}
	s.mu.Unlock()
	s.started <- v

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inFlight--
	s.order = append(s.order, v)
	s.mu.Unlock()
}

func (s *slowSaver) snapshot() ([]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...), s.maxIn
}

func TestClose_WaitsForRunningCallbackBeforeNewerValue(t *testing.T) {
	saver := newSlowSaver(50 * time.Millisecond)
	d := New[int](5*time.Millisecond, saver.save)

	_, _ = d.Trigger("A101", 1)
	require.Equal(t, 1, <-saver.started)

	_, _ = d.Trigger("A101", 2)
	_, _ = d.Trigger("A101", 3)
	d.Close()

	order, maxIn := saver.snapshot()
	assert.Equal(t, []int{1, 3}, order)
	assert.Equal(t, 1, maxIn)
	assert.Equal(t, 0, d.Pending())
}

func TestTrigger_DueWhileRunningRunsAfterwards(t *testing.T) {
	saver := newSlowSaver(60 * time.Millisecond)
	d := New[int](5*time.Millisecond, saver.save)

	_, _ = d.Trigger("A101", 1)
	require.Equal(t, 1, <-saver.started)

	// 新值的窗口在第一次保存结束前到期
	_, _ = d.Trigger("A101", 2)

	assert.Eventually(t, func() bool {
		order, _ := saver.snapshot()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	order, maxIn := saver.snapshot()
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, maxIn)
	assert.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFlush_TriggerAfterFlushUsesFreshTimer(t *testing.T) {
	rec := newRecorder()
	d := New[int](20*time.Millisecond, rec.record)

	_, _ = d.Trigger("A101", 1)
	d.Flush()
	assert.Equal(t, []int{1}, rec.get("A101"))

	_, _ = d.Trigger("A101", 2)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, []int{1}, rec.get("A101"), "new value must wait for its own window")

	assert.Eventually(t, func() bool { return len(rec.get("A101")) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1, 2}, rec.get("A101"))
}
