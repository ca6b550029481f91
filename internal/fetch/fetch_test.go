package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][2]string
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, [2]string{title, message})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func waitTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoader_FetchesOnCreation(t *testing.T) {
	var calls int32
	l := New(context.Background(), func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"a", "b"}, nil
	}, &recordingNotifier{})

	require.NoError(t, l.Wait(waitTimeout(t)))

	data, ok := l.Data()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, data)
	assert.False(t, l.Loading())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLoader_LoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	l := New(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}, nil)

	assert.True(t, l.Loading())
	_, ok := l.Data()
	assert.False(t, ok)

	close(release)
	require.NoError(t, l.Wait(waitTimeout(t)))
	assert.False(t, l.Loading())
}

func TestLoader_FailureNotifiesAndKeepsData(t *testing.T) {
	var fail atomic.Bool
	notifier := &recordingNotifier{}
	l := New(context.Background(), func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("network down")
		}
		return "first", nil
	}, notifier)
	require.NoError(t, l.Wait(waitTimeout(t)))

	fail.Store(true)
	<-l.Refetch(context.Background())

	data, ok := l.Data()
	assert.True(t, ok)
	assert.Equal(t, "first", data)
	assert.False(t, l.Loading())
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, [2]string{"Error", "network down"}, notifier.calls[0])
}

func TestLoader_FailureOnFirstFetchLeavesNoData(t *testing.T) {
	notifier := &recordingNotifier{}
	l := New(context.Background(), func(ctx context.Context) ([]int, error) {
		return nil, errors.New("boom")
	}, notifier)
	require.NoError(t, l.Wait(waitTimeout(t)))

	data, ok := l.Data()
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.Equal(t, 1, notifier.count())
}

func TestLoader_OverlappingRefetchesSettle(t *testing.T) {
	var started, finished int32
	gates := []chan struct{}{make(chan struct{}), make(chan struct{}), make(chan struct{})}
	l := New(context.Background(), func(ctx context.Context) (int32, error) {
		i := atomic.AddInt32(&started, 1) - 1
		<-gates[i]
		atomic.AddInt32(&finished, 1)
		return i, nil
	}, nil)

	l.Refetch(context.Background())
	l.Refetch(context.Background())
	assert.True(t, l.Loading())

	// Two of three fetches complete; the loader is still loading.
	close(gates[0])
	close(gates[2])
	require.Eventually(t, func() bool { return atomic.LoadInt32(&finished) == 2 }, time.Second, time.Millisecond)
	assert.True(t, l.Loading())

	close(gates[1])
	require.NoError(t, l.Wait(waitTimeout(t)))
	assert.False(t, l.Loading())

	_, ok := l.Data()
	assert.True(t, ok)
}

func TestLoader_RefetchTwiceInQuickSuccession(t *testing.T) {
	l := New(context.Background(), func(ctx context.Context) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	}, nil)

	l.Refetch(context.Background())
	l.Refetch(context.Background())

	require.NoError(t, l.Wait(waitTimeout(t)))
	assert.False(t, l.Loading())
	data, _ := l.Data()
	assert.Equal(t, "ok", data)
}

func TestLoader_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	l := New(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 0, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLogNotifier(t *testing.T) {
	// Must not panic with a no-op logger.
	LogNotifier(zap.NewNop()).Notify(ErrorTitle, "message")
}
