package staging

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkStage_Throughput(b *testing.B) {
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			const batchSize = 1024
			records := seqRecords(0, batchSize)

			stage := NewStage("bench", Config{BatchSize: batchSize, Workers: workers})
			feeder, err := NewFeeder[int](stage)
			if err != nil {
				b.Fatal(err)
			}
			sum, err := AddStep(stage, feeder, "SUM", 0, func(_ context.Context, batch Batch[int], send Sender[int]) error {
				total := 0
				for _, v := range batch.Records {
					total += v
				}
				return send(Derive(batch, []int{total}))
			})
			if err != nil {
				b.Fatal(err)
			}
			if _, err := AddStep(stage, sum, "SINK", 1, func(context.Context, Batch[int], Sender[None]) error {
				return nil
			}); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.SetBytes(batchSize * 8)
			b.ResetTimer()

			err = stage.Run(context.Background(), func(ctx context.Context) error {
				for range b.N {
					if err := feeder.Offer(ctx, records); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				b.Fatal(err)
			}
		})
	}
}
