package staging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqRecords(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func TestStage_NoDataLoss(t *testing.T) {
	const (
		batches   = 100
		batchSize = 10
	)

	stage := NewStage("test", Config{BatchSize: batchSize, Workers: 4, QueueCapacity: 2})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	double, err := AddStep(stage, feeder, "DOUBLE", 0, func(_ context.Context, b Batch[int], send Sender[int]) error {
		out := make([]int, len(b.Records))
		for i, v := range b.Records {
			out[i] = v * 2
		}
		return send(Derive(b, out))
	})
	require.NoError(t, err)
	assert.Equal(t, 4, double.Workers())

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
	)
	_, err = AddStep(stage, double, "SINK", 1, func(_ context.Context, b Batch[int], _ Sender[None]) error {
		mu.Lock()
		defer mu.Unlock()
		for _, v := range b.Records {
			seen[v]++
		}
		return nil
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		for i := range batches {
			if err := feeder.Offer(ctx, seqRecords(i*batchSize, batchSize)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, seen, batches*batchSize)
	for i := range batches * batchSize {
		assert.Equal(t, 1, seen[i*2], "record %d", i)
	}

	stats := stage.Stats()
	require.Len(t, stats, 2)
	for _, st := range stats {
		assert.Equal(t, uint64(batches), st.Batches, st.Name)
		assert.Equal(t, uint64(batches*batchSize), st.Records, st.Name)
		assert.True(t, st.Done, st.Name)
	}
	assert.Equal(t, uint64(batches), stats[0].Sent)
	assert.Equal(t, uint64(batches), feeder.Offered())
}

func TestStage_SingleWorkerPreservesOrder(t *testing.T) {
	stage := NewStage("order", Config{BatchSize: 4, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	mapStep, err := AddStep(stage, feeder, "MAP", 1, func(_ context.Context, b Batch[int], send Sender[int]) error {
		return send(b)
	})
	require.NoError(t, err)

	var order []uint64
	_, err = AddStep(stage, mapStep, "SINK", 1, func(_ context.Context, b Batch[int], _ Sender[None]) error {
		order = append(order, b.Seq)
		return nil
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		for i := range 50 {
			if err := feeder.Offer(ctx, []int{i}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, order, 50)
	for i, seq := range order {
		assert.Equal(t, uint64(i), seq)
	}
}

func TestStage_HaltPropagation(t *testing.T) {
	boom := errors.New("boom")

	stage := NewStage("halt", Config{BatchSize: 1, Workers: 4, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	fail, err := AddStep(stage, feeder, "FAIL", 4, func(_ context.Context, b Batch[int], send Sender[int]) error {
		if b.Seq == 5 {
			return boom
		}
		return send(b)
	})
	require.NoError(t, err)

	// A slow sink keeps batches in flight when the failure hits.
	_, err = AddStep(stage, fail, "SLOW", 1, func(ctx context.Context, _ Batch[int], _ Sender[None]) error {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- stage.Run(context.Background(), func(ctx context.Context) error {
			for i := range 10_000 {
				if err := feeder.Offer(ctx, []int{i}); err != nil {
					return err
				}
			}
			return nil
		})
	}()

	select {
	case err = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("stage did not terminate after failure")
	}

	require.ErrorIs(t, err, boom)
	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "FAIL", pe.Step)
	assert.Equal(t, uint64(5), pe.Seq)

	assert.True(t, stage.Control().Halted())
	assert.Less(t, feeder.Offered(), uint64(10_000))
	for _, st := range stage.Stats() {
		assert.True(t, st.Done, st.Name)
	}
}

func TestStage_SingleCauseFromConcurrentFailures(t *testing.T) {
	stage := NewStage("many", Config{BatchSize: 1, Workers: 8, QueueCapacity: 8})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	var started sync.WaitGroup
	started.Add(8)
	_, err = AddStep(stage, feeder, "FAIL", 8, func(_ context.Context, b Batch[int], _ Sender[None]) error {
		started.Done()
		started.Wait()
		return errors.New("worker failure")
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		for i := range 8 {
			if err := feeder.Offer(ctx, []int{i}); err != nil {
				return err
			}
		}
		return nil
	})

	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, stage.Control().Err(), err)
}

func TestStage_Backpressure(t *testing.T) {
	stage := NewStage("bp", Config{BatchSize: 1, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	var (
		produced    atomic.Int64
		consumed    atomic.Int64
		maxInFlight atomic.Int64
		maxDepth    atomic.Int64
	)

	var sink *ProcessorStep[int, None]
	producer, err := AddStep(stage, feeder, "PRODUCE", 1, func(_ context.Context, b Batch[int], send Sender[int]) error {
		for i := range 4 {
			if err := send(Batch[int]{Seq: b.Seq*4 + uint64(i), Records: b.Records}); err != nil {
				return err
			}
			inFlight := produced.Add(1) - consumed.Load()
			if inFlight > maxInFlight.Load() {
				maxInFlight.Store(inFlight)
			}
			if d := int64(sink.Stats().QueueDepth); d > maxDepth.Load() {
				maxDepth.Store(d)
			}
		}
		return nil
	})
	require.NoError(t, err)

	sink, err = AddStep(stage, producer, "SLOW", 1, func(_ context.Context, _ Batch[int], _ Sender[None]) error {
		consumed.Add(1)
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		for i := range 20 {
			if err := feeder.Offer(ctx, []int{i}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(80), consumed.Load())
	assert.LessOrEqual(t, maxDepth.Load(), int64(1))
	// One batch queued plus the one the sink worker has taken but not yet counted.
	assert.LessOrEqual(t, maxInFlight.Load(), int64(2))
}

func TestStage_PanicIsCaptured(t *testing.T) {
	stage := NewStage("panic", Config{BatchSize: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	_, err = AddStep(stage, feeder, "PANIC", 2, func(context.Context, Batch[int], Sender[None]) error {
		panic("kaputt")
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		return feeder.Offer(ctx, []int{1})
	})
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "kaputt")
}

func TestStage_ProducerFailure(t *testing.T) {
	stage := NewStage("producer", Config{})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)
	_, err = AddStep(stage, feeder, "NOP", 1, func(context.Context, Batch[int], Sender[None]) error {
		return nil
	})
	require.NoError(t, err)

	bad := errors.New("bad input")
	err = stage.Run(context.Background(), func(ctx context.Context) error {
		if err := feeder.Offer(ctx, []int{1, 2}); err != nil {
			return err
		}
		return bad
	})
	assert.ErrorIs(t, err, bad)
}

func TestStage_ParentCancel(t *testing.T) {
	stage := NewStage("cancel", Config{BatchSize: 1, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	release := make(chan struct{})
	_, err = AddStep(stage, feeder, "BLOCK", 1, func(ctx context.Context, _ Batch[int], _ Sender[None]) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer close(release)

	err = stage.Run(ctx, func(runCtx context.Context) error {
		for i := range 100 {
			if i == 2 {
				cancel()
			}
			if err := feeder.Offer(runCtx, []int{i}); err != nil {
				return err
			}
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, stage.Control().Halted())
}

func TestStage_TerminalSend(t *testing.T) {
	stage := NewStage("terminal", Config{})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)
	_, err = AddStep(stage, feeder, "LAST", 1, func(_ context.Context, b Batch[int], send Sender[int]) error {
		return send(b)
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		return feeder.Offer(ctx, []int{1})
	})
	assert.ErrorIs(t, err, ErrNoDownstream)
}

func TestStage_Wiring(t *testing.T) {
	nop := func(context.Context, Batch[int], Sender[int]) error { return nil }

	t.Run("AlreadyConnected", func(t *testing.T) {
		stage := NewStage("w", Config{})
		feeder, err := NewFeeder[int](stage)
		require.NoError(t, err)
		_, err = AddStep(stage, feeder, "A", 1, nop)
		require.NoError(t, err)
		_, err = AddStep(stage, feeder, "B", 1, nop)
		assert.ErrorIs(t, err, ErrAlreadyConnected)
	})

	t.Run("ForeignUpstream", func(t *testing.T) {
		other := NewStage("other", Config{})
		feeder, err := NewFeeder[int](other)
		require.NoError(t, err)
		_, err = AddStep(NewStage("w", Config{}), feeder, "A", 1, nop)
		assert.ErrorIs(t, err, ErrForeignUpstream)
	})

	t.Run("SecondFeeder", func(t *testing.T) {
		stage := NewStage("w", Config{})
		_, err := NewFeeder[int](stage)
		require.NoError(t, err)
		_, err = NewFeeder[string](stage)
		assert.ErrorIs(t, err, ErrFeederExists)
	})

	t.Run("NoFeeder", func(t *testing.T) {
		assert.ErrorIs(t, NewStage("w", Config{}).Start(context.Background()), ErrNoFeeder)
	})

	t.Run("NoSteps", func(t *testing.T) {
		stage := NewStage("w", Config{})
		_, err := NewFeeder[int](stage)
		require.NoError(t, err)
		assert.ErrorIs(t, stage.Start(context.Background()), ErrNoSteps)
	})

	t.Run("StartedTwice", func(t *testing.T) {
		stage := NewStage("w", Config{})
		feeder, err := NewFeeder[int](stage)
		require.NoError(t, err)
		_, err = AddStep(stage, feeder, "A", 1, nop)
		require.NoError(t, err)

		require.NoError(t, stage.Start(context.Background()))
		assert.ErrorIs(t, stage.Start(context.Background()), ErrStageStarted)
		_, err = AddStep(stage, feeder, "B", 1, nop)
		assert.ErrorIs(t, err, ErrStageStarted)

		feeder.Close()
		feeder.Close()
		require.NoError(t, stage.Wait())
	})

	t.Run("WaitBeforeStart", func(t *testing.T) {
		assert.ErrorIs(t, NewStage("w", Config{}).Wait(), ErrNotStarted)
	})
}

func TestFeeder(t *testing.T) {
	stage := NewStage("feed", Config{BatchSize: 2})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)
	_, err = AddStep(stage, feeder, "NOP", 1, func(context.Context, Batch[int], Sender[None]) error {
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, feeder.Offer(ctx, []int{1}), ErrNotStarted)

	require.NoError(t, stage.Start(ctx))
	assert.ErrorIs(t, feeder.Offer(ctx, []int{1, 2, 3}), ErrBatchTooLarge)
	require.NoError(t, feeder.Offer(ctx, nil))
	require.NoError(t, feeder.Offer(ctx, []int{1, 2}))

	feeder.Close()
	assert.ErrorIs(t, feeder.Offer(ctx, []int{1}), ErrFeederClosed)
	require.NoError(t, stage.Wait())
	assert.Equal(t, uint64(1), feeder.Offered())
}

func TestStage_MonitorAndObserver(t *testing.T) {
	var buf safeBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var observed atomic.Int64
	stage := NewStage("mon", Config{BatchSize: 5},
		WithLogger(logger),
		WithMonitorInterval(time.Millisecond),
		WithBatchObserver(func(step string, records int, _ time.Duration) {
			assert.Equal(t, "SINK", step)
			observed.Add(int64(records))
		}),
	)
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)
	_, err = AddStep(stage, feeder, "SINK", 1, func(context.Context, Batch[int], Sender[None]) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		for i := range 5 {
			if err := feeder.Offer(ctx, seqRecords(i*5, 5)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), observed.Load())
	out := buf.String()
	assert.Contains(t, out, "step progress")
	assert.Contains(t, out, "stage=mon")
	assert.Contains(t, out, "step=SINK")
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStage_ProducerPanic(t *testing.T) {
	stage := NewStage("producer-panic", Config{BatchSize: 1, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)
	_, err = AddStep(stage, feeder, "NOP", 2, func(context.Context, Batch[int], Sender[None]) error {
		return nil
	})
	require.NoError(t, err)

	err = stage.Run(context.Background(), func(ctx context.Context) error {
		if err := feeder.Offer(ctx, []int{1}); err != nil {
			return err
		}
		panic("producer bug")
	})
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "producer bug")

	assert.True(t, stage.Control().Halted())
	for _, st := range stage.Stats() {
		assert.True(t, st.Done, st.Name)
	}
}

func TestFeeder_CloseUnblocksOffer(t *testing.T) {
	stage := NewStage("close", Config{BatchSize: 1, QueueCapacity: 1})
	feeder, err := NewFeeder[int](stage)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	_, err = AddStep(stage, feeder, "BLOCK", 1, func(context.Context, Batch[int], Sender[None]) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, stage.Start(ctx))

	require.NoError(t, feeder.Offer(ctx, []int{0}))
	<-started
	require.NoError(t, feeder.Offer(ctx, []int{1}))

	blocked := make(chan error, 1)
	go func() {
		blocked <- feeder.Offer(ctx, []int{2})
	}()

	// Neither call waits for the stalled producer.
	assert.Equal(t, uint64(2), feeder.Offered())
	feeder.Close()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrFeederClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("offer still blocked after close")
	}

	close(release)
	require.NoError(t, stage.Wait())
	assert.Equal(t, uint64(2), stage.Stats()[0].Batches)
}
