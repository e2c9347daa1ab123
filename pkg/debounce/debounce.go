// Package debounce 提供按 key 合并的延迟执行器。
//
// 同一 key 在窗口期内的多次 Trigger 只会在最后一次触发后 window 时长执行一次，
// 且执行的是最后一次提交的值；不同 key 互不影响。
// 同一 key 的回调串行执行：回调在途时到期的新值会在其结束后接着执行。
package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed 执行器已关闭
var ErrClosed = errors.New("debounce: 执行器已关闭")

// Func 窗口结束时执行的回调
type Func[T any] func(key string, value T)

// keyState 单个 key 的调度状态
type keyState[T any] struct {
	timer    *time.Timer
	gen      uint64 // 当前定时器的序号，过期的定时器据此失效
	value    T
	hasValue bool // 存在尚未执行的值
	due      bool // 值已到期，等待在途回调结束后执行
	running  bool
}

// Debouncer 按 key 合并触发的延迟执行器，可并发使用
type Debouncer[T any] struct {
	window time.Duration
	fn     Func[T]

	mu     sync.Mutex
	keys   map[string]*keyState[T]
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

// New 创建执行器
func New[T any](window time.Duration, fn Func[T]) *Debouncer[T] {
	return &Debouncer[T]{
		window: window,
		fn:     fn,
		keys:   make(map[string]*keyState[T]),
	}
}

// Window 返回合并窗口
func (d *Debouncer[T]) Window() time.Duration {
	return d.window
}

// Trigger 提交一次触发。返回 coalesced=true 表示覆盖了同 key 尚未执行的上一次提交。
func (d *Debouncer[T]) Trigger(key string, value T) (coalesced bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false, ErrClosed
	}

	s, ok := d.keys[key]
	if !ok {
		s = &keyState[T]{}
		d.keys[key] = s
	}
	coalesced = s.hasValue

	d.stopTimer(s)
	s.value = value
	s.hasValue = true
	s.due = false

	d.seq++
	s.gen = d.seq
	gen := s.gen
	d.wg.Add(1)
	s.timer = time.AfterFunc(d.window, func() { d.fire(key, gen) })

	return coalesced, nil
}

// stopTimer 停止 key 的定时器；调用方持有 mu
func (d *Debouncer[T]) stopTimer(s *keyState[T]) {
	if s.timer != nil && s.timer.Stop() {
		d.wg.Done()
	}
	s.timer = nil
}

func (d *Debouncer[T]) fire(key string, gen uint64) {
	defer d.wg.Done()

	d.mu.Lock()
	s, ok := d.keys[key]
	if !ok || s.gen != gen || !s.hasValue {
		d.mu.Unlock()
		return
	}
	s.timer = nil
	if s.running {
		s.due = true
		d.mu.Unlock()
		return
	}
	value := d.take(s)
	d.mu.Unlock()

	d.run(key, s, value)
}

// take 取出待执行值并标记在途；调用方持有 mu
func (d *Debouncer[T]) take(s *keyState[T]) T {
	value := s.value
	var zero T
	s.value = zero
	s.hasValue = false
	s.due = false
	s.running = true
	return value
}

// run 执行回调，结束后若有已到期的新值则继续执行
func (d *Debouncer[T]) run(key string, s *keyState[T], value T) {
	for {
		d.fn(key, value)

		d.mu.Lock()
		if s.hasValue && s.due {
			value = d.take(s)
			d.mu.Unlock()
			continue
		}
		s.running = false
		if !s.hasValue && s.timer == nil {
			delete(d.keys, key)
		}
		d.mu.Unlock()
		return
	}
}

// Pending 返回尚未执行的 key 数量
func (d *Debouncer[T]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, s := range d.keys {
		if s.hasValue {
			n++
		}
	}
	return n
}

// Flush 立即执行所有待执行的提交，并等待在途回调结束。
// 某 key 回调在途时，其新值在该回调结束后执行。
func (d *Debouncer[T]) Flush() {
	type job struct {
		key   string
		state *keyState[T]
		value T
	}

	d.mu.Lock()
	var jobs []job
	for key, s := range d.keys {
		if !s.hasValue {
			continue
		}
		d.stopTimer(s)
		d.seq++
		s.gen = d.seq
		if s.running {
			s.due = true
			continue
		}
		jobs = append(jobs, job{key: key, state: s, value: d.take(s)})
	}
	d.wg.Add(len(jobs))
	d.mu.Unlock()

	for _, j := range jobs {
		d.run(j.key, j.state, j.value)
		d.wg.Done()
	}

	d.wg.Wait()
}

// Close 拒绝新的提交并冲刷剩余任务
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.Flush()
}
