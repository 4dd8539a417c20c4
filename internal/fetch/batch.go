package fetch

import (
	"context"
	"math/rand/v2"
	"time"
)

// Batch 是叠加在单请求间隔之上的粗粒度节流：每完成 Size 次详情请求，长暂停一次。
type Batch struct {
	size  int
	min   time.Duration
	max   time.Duration
	count int
	sleep SleepFunc
	rand  func() float64
}

// BatchOptions 为 Batch 构造参数。
type BatchOptions struct {
	Size  int
	Min   time.Duration
	Max   time.Duration
	Sleep SleepFunc
	Rand  func() float64
}

func NewBatch(opts BatchOptions) *Batch {
	b := &Batch{size: opts.Size, min: opts.Min, max: opts.Max, sleep: opts.Sleep, rand: opts.Rand}
	if b.max < b.min {
		b.max = b.min
	}
	if b.sleep == nil {
		b.sleep = Sleep
	}
	if b.rand == nil {
		b.rand = rand.Float64
	}
	return b
}

// Tick 记录一次详情请求；若恰好满一批则暂停，返回实际暂停时长。
func (b *Batch) Tick(ctx context.Context) (time.Duration, error) {
	b.count++
	if b.size <= 0 || b.count%b.size != 0 {
		return 0, nil
	}
	d := b.min + time.Duration(b.rand()*float64(b.max-b.min))
	if err := b.sleep(ctx, d); err != nil {
		return 0, err
	}
	return d, nil
}
