package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"anomalydash/internal/logger"
	"anomalydash/internal/services/cache"
	"anomalydash/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls   int32
	release chan struct{}
	payload string
	err     error
}

func (f *fakeFetcher) FetchImage(ctx context.Context, key string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.payload, f.err
}

func (f *fakeFetcher) count() int {
	return int(atomic.LoadInt32(&f.calls))
}

func newLoader(f Fetcher) *ImageLoader {
	return New(cache.NewResourceCache(), f, time.Second, logger.Discard(), nil)
}

func TestConcurrentLoadsShareOneRetrieval(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{}), payload: "data:image/jpeg;base64,/9j/"}
	l := newLoader(f)

	const callers = 50
	results := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background(), "f1.jpg")
		}(i)
	}

	require.Eventually(t, func() bool { return l.State("f1.jpg") == cache.InFlight }, time.Second, time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, 1, f.count())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "data:image/jpeg;base64,/9j/", results[i])
	}
}

func TestLoadedKeyIsNotFetchedAgain(t *testing.T) {
	f := &fakeFetcher{payload: "data:image/png;base64,iVBORw0KGgo="}
	l := newLoader(f)

	first, err := l.Load(context.Background(), "a.png")
	require.NoError(t, err)
	second, err := l.Load(context.Background(), "a.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.count())
	assert.Equal(t, cache.Loaded, l.State("a.png"))
}

func TestFailedLoadIsSharedThenRetried(t *testing.T) {
	f := &fakeFetcher{
		release: make(chan struct{}),
		err:     &upstream.ServerError{Message: "not found"},
	}
	l := newLoader(f)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Load(context.Background(), "f1.jpg")
		}(i)
	}
	require.Eventually(t, func() bool { return l.State("f1.jpg") == cache.InFlight }, time.Second, time.Millisecond)
	close(f.release)
	wg.Wait()

	var loadErr *ImageLoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, "f1.jpg", loadErr.Key)
	assert.ErrorIs(t, errs[0], upstream.ErrServerReported)
	assert.Same(t, errs[0], errs[1], "every waiter sees the same failure")

	entry, _ := l.Cache().Get("f1.jpg")
	assert.Equal(t, cache.Failed, entry.State)
	assert.Equal(t, 1, f.count())

	f.release = nil
	f.err = nil
	f.payload = "data:image/jpeg;base64,/9j/"
	payload, err := l.Load(context.Background(), "f1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,/9j/", payload)
	assert.Equal(t, 2, f.count())
}

func TestCanceledWaiterDoesNotAbortRetrieval(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{}), payload: "data:image/gif;base64,R0lGOD=="}
	l := newLoader(f)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, "g.gif")
		errc <- err
	}()

	require.Eventually(t, func() bool { return l.State("g.gif") == cache.InFlight }, time.Second, time.Millisecond)
	cancel()
	assert.True(t, errors.Is(<-errc, context.Canceled))

	close(f.release)
	require.Eventually(t, func() bool { return l.State("g.gif") == cache.Loaded }, time.Second, time.Millisecond)
	assert.Equal(t, 1, f.count())
}

func TestRetrievalTimeoutFailsEntry(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{})}
	l := New(cache.NewResourceCache(), f, 20*time.Millisecond, logger.Discard(), nil)

	_, err := l.Load(context.Background(), "slow.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, cache.Failed, l.State("slow.jpg"))
}
