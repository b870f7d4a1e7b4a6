package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddResponseSatisfiesBeforeTimeout(t *testing.T) {
	var timer = NewTimer(2)
	var resultCh = make(chan []interface{}, 1)

	timer.AddTask(1, time.Minute, 1, func(responses []interface{}) {
		resultCh <- responses
	})
	timer.AddResponse(1, "first responder")

	select {
	case got := <-resultCh:
		assert.Equal(t, []interface{}{"first responder"}, got)
	case <-time.After(time.Second):
		t.Fatal("functor was not invoked")
	}
}

func TestTimeoutFiresWithWhateverAccumulated(t *testing.T) {
	var timer = NewTimer(2)
	var resultCh = make(chan []interface{}, 1)

	timer.AddTask(1, 10*time.Millisecond, 3, func(responses []interface{}) {
		resultCh <- responses
	})

	select {
	case got := <-resultCh:
		assert.Empty(t, got)
	case <-time.After(time.Second):
		t.Fatal("functor was not invoked on timeout")
	}
}

func TestLateResponseAfterFireIsDiscarded(t *testing.T) {
	var timer = NewTimer(2)
	var calls = 0
	var resultCh = make(chan struct{}, 1)

	timer.AddTask(1, 10*time.Millisecond, 99, func(responses []interface{}) {
		calls++
		resultCh <- struct{}{}
	})
	<-resultCh

	// Late response must not panic or invoke the functor again.
	timer.AddResponse(1, "too late")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestShutdownFiresPendingTasksImmediately(t *testing.T) {
	var timer = NewTimer(2)
	var resultCh = make(chan []interface{}, 1)

	timer.AddTask(1, time.Hour, 99, func(responses []interface{}) {
		resultCh <- responses
	})
	timer.AddResponse(1, "partial")
	timer.Shutdown()

	select {
	case got := <-resultCh:
		assert.Equal(t, []interface{}{"partial"}, got)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not fire pending task")
	}
	assert.Equal(t, 0, timer.Pending())
}

func TestCancelSuppressesFunctor(t *testing.T) {
	var timer = NewTimer(2)
	var called = false

	timer.AddTask(1, 10*time.Millisecond, 1, func(responses []interface{}) {
		called = true
	})
	timer.Cancel(1)
	time.Sleep(30 * time.Millisecond)
	assert.False(t, called)
}
