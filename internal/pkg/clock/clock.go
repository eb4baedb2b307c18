package clock

import "time"

// Clock 所有和时间相关的等待都通过它完成，测试里换成 Fake
type Clock interface {
	Now() time.Time
	// After d <= 0 时立刻返回
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker C 的容量为 1，消费不及时就丢弃
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

func (t *Ticker) Stop() {
	t.stop()
}

// Real 基于标准库 time
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
