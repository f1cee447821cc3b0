package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerRunsLastOnce(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls, last int32

	for i := int32(1); i <= 5; i++ {
		v := i
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, v)
		})
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })

	assert.True(t, d.Flush())
	assert.True(t, ran)
	assert.False(t, d.Flush())
}

func TestStopCancels(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, d.Flush())
}

func TestZeroWindowIsSynchronous(t *testing.T) {
	d := New(0)
	ran := false
	d.Trigger(func() { ran = true })
	assert.True(t, ran)
}
