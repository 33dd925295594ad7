// Package clock абстрагирует время: текущий момент и отложенный вызов.
// В проде — time.Now/time.AfterFunc, в тестах — FakeClock.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer — отменяемый отложенный вызов.
type Timer interface {
	// Stop отменяет вызов. Возвращает false, если он уже сработал или отменён.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FakeClock детерминирован: время двигается только через Set/Advance,
// а отложенные вызовы срабатывают внутри Advance.
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	timers []*fakeTimer
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	ft := &fakeTimer{clock: c, at: c.t.Add(d), f: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Advance сдвигает время и вызывает все таймеры, чей срок наступил,
// в порядке их срока. Колбэки вызываются без удержания мьютекса часов.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	now := c.t

	var due, rest []*fakeTimer
	for _, ft := range c.timers {
		if !ft.at.After(now) {
			due = append(due, ft)
		} else {
			rest = append(rest, ft)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, ft := range due {
		ft.f()
	}
}

// Pending возвращает число ещё не сработавших таймеров.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	f     func()
}

func (ft *fakeTimer) Stop() bool {
	c := ft.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.timers {
		if other == ft {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
