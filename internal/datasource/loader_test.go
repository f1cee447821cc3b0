package datasource

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	"spcdash/internal/errors"
	"spcdash/internal/testkit"
	"spcdash/ports"
)

type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) FetchRecords(ctx context.Context, filter measurement.Filter) ([]measurement.Record, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]measurement.Record), args.Error(1)
}

func (m *MockRecordSource) Name() string { return "mock" }

type MockLimitsSource struct {
	mock.Mock
}

func (m *MockLimitsSource) CurrentLimits(ctx context.Context, q measurement.LimitsQuery) ([]measurement.Limits, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]measurement.Limits), args.Error(1)
}

func newTestLoader(t *testing.T, records ports.RecordSource, limits ports.LimitsSource, opts Options) *Loader {
	t.Helper()
	l, err := NewLoader(context.Background(), records, limits, opts)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(context.Background()) })
	return l
}

func sampleRecords() []measurement.Record {
	var out []measurement.Record
	for i, e := range []string{"FAKE_TOOL1", "FAKE_TOOL2", "FAKE_TOOL1"} {
		out = append(out, measurement.Record{Entity: e, Fields: map[string]interface{}{"cd_att": float64(i)}})
	}
	return out
}

func baseFilter(entity string) measurement.Filter {
	return measurement.Filter{SPCMonitor: "SPC_CD_L1", ProcessType: "1000", ProductType: "XLY2", Entity: entity}
}

func TestLoadAppliesEntityFilterClientSide(t *testing.T) {
	src := new(MockRecordSource)
	lim := new(MockLimitsSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil).Once()
	lim.On("CurrentLimits", mock.Anything, measurement.LimitsQuery{SPCMonitor: "SPC_CD_L1", ProcessType: "1000", ProductType: "XLY2"}).
		Return([]measurement.Limits{{ChartName: "cd_att"}}, nil).Once()

	l := newTestLoader(t, src, lim, Options{})
	snap, err := l.Load(context.Background(), baseFilter("FAKE_TOOL1"))
	require.NoError(t, err)

	assert.Len(t, snap.Data, 2)
	assert.Len(t, snap.AllData, 3)
	assert.Len(t, snap.Limits, 1)
	assert.False(t, snap.FromCache)
	assert.Same(t, snap, l.Current())

	// switching entity hits the cache
	snap, err = l.Load(context.Background(), baseFilter("FAKE_TOOL2"))
	require.NoError(t, err)
	assert.True(t, snap.FromCache)
	assert.Len(t, snap.Data, 1)

	src.AssertExpectations(t)
	lim.AssertExpectations(t)
	src.AssertNumberOfCalls(t, "FetchRecords", 1)
}

func TestLoadRefetchesAfterTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil)

	l := newTestLoader(t, src, nil, Options{TTL: 5 * time.Minute, Clock: clock})
	_, err := l.Load(context.Background(), baseFilter(""))
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	snap, err := l.Load(context.Background(), baseFilter(""))
	require.NoError(t, err)
	assert.False(t, snap.FromCache)
	src.AssertNumberOfCalls(t, "FetchRecords", 2)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil)

	l := newTestLoader(t, src, nil, Options{})
	first := l.Begin()
	second := l.Begin()

	_, err := l.LoadAs(context.Background(), first, baseFilter(""))
	require.Error(t, err)
	assert.True(t, core.IsSuperseded(err))
	assert.Equal(t, errors.CodeSuperseded, errors.GetCode(err))
	assert.Nil(t, l.Current())

	snap, err := l.LoadAs(context.Background(), second, baseFilter(""))
	require.NoError(t, err)
	assert.Equal(t, second, snap.RequestID)
}

func TestSourceErrorIsWrapped(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection refused"))

	l := newTestLoader(t, src, nil, Options{})
	_, err := l.Load(context.Background(), baseFilter(""))
	require.Error(t, err)
	assert.Equal(t, errors.CodeSourceError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, l.CacheStats(context.Background()).Entries)
}

func TestInvalidFilterRejected(t *testing.T) {
	l := newTestLoader(t, new(MockRecordSource), nil, Options{})
	f := baseFilter("")
	f.StartDate, f.EndDate = "2024-05-10", "2024-05-01"

	_, err := l.Load(context.Background(), f)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) FetchRecords(ctx context.Context, _ measurement.Filter) ([]measurement.Record, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return sampleRecords(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestConcurrentIdenticalLoadsShareOneFetch(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	l := newTestLoader(t, src, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Load(context.Background(), baseFilter("FAKE_TOOL1"))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	require.NotNil(t, l.Current())
	assert.Equal(t, l.Latest(), l.Current().RequestID)
}

func TestSelectEntity(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil)
	l := newTestLoader(t, src, nil, Options{})

	_, err := l.SelectEntity("FAKE_TOOL2")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = l.Load(context.Background(), baseFilter("FAKE_TOOL1"))
	require.NoError(t, err)
	snap, err := l.SelectEntity("FAKE_TOOL2")
	require.NoError(t, err)
	assert.Len(t, snap.Data, 1)
	assert.Equal(t, "FAKE_TOOL2", snap.Filter.Entity)
	src.AssertNumberOfCalls(t, "FetchRecords", 1)
}

func TestQueryLeavesResidentSnapshotAlone(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil).Once()

	l := newTestLoader(t, src, nil, Options{})
	pending := l.Begin()

	snap, err := l.Query(context.Background(), baseFilter("FAKE_TOOL2"))
	require.NoError(t, err)
	assert.Len(t, snap.Data, 1)
	assert.Nil(t, l.Current())
	assert.Equal(t, pending, l.Latest())

	// the cached set serves the pending request
	snap, err = l.LoadAs(context.Background(), pending, baseFilter(""))
	require.NoError(t, err)
	assert.True(t, snap.FromCache)
	src.AssertExpectations(t)
}

func TestRefreshRefetchesWithCappedPageSize(t *testing.T) {
	gen := testkit.NewCDGenerator(testkit.DefaultCDConfig())
	src := testkit.NewMemorySource(gen.Generate(), nil)
	l := newTestLoader(t, src, nil, Options{MaxRecords: 500})

	f := baseFilter("")
	snap, err := l.Load(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 500, snap.Filter.PageSize)
	assert.Equal(t, 1, src.Fetches())

	snap, err = l.Refresh(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, snap.FromCache)
	assert.Equal(t, 2, src.Fetches(), "refresh must bypass the cached entry")
}

func TestSharedFetchSurvivesCancelledCaller(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	l := newTestLoader(t, src, nil, Options{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Query(firstCtx, baseFilter(""))
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := l.Query(context.Background(), baseFilter(""))
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(src.release)

	assert.NoError(t, <-secondErr)
	<-firstErr
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestSessionsHaveIndependentSequences(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil).Once()
	l := newTestLoader(t, src, nil, Options{})

	a, b := l.NewSession(), l.NewSession()
	idA := a.Begin()
	b.Begin()
	b.Begin()

	snap, err := a.LoadAs(context.Background(), idA, baseFilter("FAKE_TOOL1"))
	require.NoError(t, err)
	assert.Len(t, snap.Data, 2)
	assert.Same(t, snap, a.Current())
	assert.Nil(t, b.Current())
	assert.Nil(t, l.Current())
	src.AssertExpectations(t)
}

func TestApplyRunsOnlyForLatest(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FetchRecords", mock.Anything, mock.Anything).Return(sampleRecords(), nil)
	l := newTestLoader(t, src, nil, Options{})
	s := l.NewSession()

	stale, fresh := s.Begin(), s.Begin()
	var applied []core.RequestID
	record := func(snap *Snapshot) { applied = append(applied, snap.RequestID) }

	_, err := s.Apply(context.Background(), fresh, baseFilter("FAKE_TOOL2"), record)
	require.NoError(t, err)
	_, err = s.Apply(context.Background(), stale, baseFilter("FAKE_TOOL1"), record)
	assert.True(t, core.IsSuperseded(err))

	assert.Equal(t, []core.RequestID{fresh}, applied)
	assert.Equal(t, "FAKE_TOOL2", s.Current().Entity)
}
