package service

import (
	"testing"
	"time"

	"StockReview/pkg/kvstore"
	"StockReview/pkg/recordstore"
)

var day0 = time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)

// fixedClock 可手动推进的时钟
type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestServices 每个测试使用新的内存记录存储和内存键值存储
func newTestServices(t *testing.T, policy MatchPolicy) (*Services, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: day0}
	records := recordstore.NewMemory()
	t.Cleanup(func() { records.Close() })
	return New(records, kvstore.NewMemory(), Options{Clock: clock.Now, Matching: policy}), clock
}

func ptr[T any](v T) *T { return &v }
