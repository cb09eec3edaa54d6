package staging

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := Config{}.withDefaults()
		assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
		assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
		assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	})

	t.Run("KeepsExplicitValues", func(t *testing.T) {
		cfg := Config{BatchSize: 7, Workers: 3, QueueCapacity: 1}.withDefaults()
		assert.Equal(t, Config{BatchSize: 7, Workers: 3, QueueCapacity: 1}, cfg)
	})

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, Config{}.Validate())
		require.NoError(t, DefaultConfig().Validate())

		for _, cfg := range []Config{
			{BatchSize: -1},
			{Workers: -1},
			{QueueCapacity: -1},
		} {
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		}
	})

	t.Run("StageCopiesConfig", func(t *testing.T) {
		cfg := Config{BatchSize: 10, Workers: 2, QueueCapacity: 2}
		stage := NewStage("s", cfg)
		cfg.BatchSize = 99
		assert.Equal(t, 10, stage.Config().BatchSize)
	})
}

func TestDerive(t *testing.T) {
	in := Batch[int]{Seq: 42, Records: []int{1, 2, 3}}
	out := Derive(in, []string{"a"})
	assert.Equal(t, uint64(42), out.Seq)
	assert.Equal(t, 1, out.Len())
}
