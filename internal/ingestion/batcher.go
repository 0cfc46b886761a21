package ingestion

import "context"

const DefaultBatchSize = 500

type flushFunc func(ctx context.Context, batch []Record, firstPosition int64) error

// batchWriter buffers records and hands them to flush in groups of size.
type batchWriter struct {
	size    int
	flush   flushFunc
	buf     []Record
	total   int64
	batches int
}

func newBatchWriter(size int, flush flushFunc) *batchWriter {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &batchWriter{size: size, flush: flush, buf: make([]Record, 0, size)}
}

func (b *batchWriter) Add(ctx context.Context, rec Record) error {
	b.buf = append(b.buf, rec)
	if len(b.buf) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered records. Positions continue from the previous batch.
func (b *batchWriter) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	if err := b.flush(ctx, b.buf, b.total+1); err != nil {
		return err
	}
	b.total += int64(len(b.buf))
	b.batches++
	b.buf = b.buf[:0]
	return nil
}

// Drain consumes in until it is closed, then flushes the remainder. The
// producer blocks on the unbuffered channel while a flush is running.
func (b *batchWriter) Drain(ctx context.Context, in <-chan Record) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-in:
			if !ok {
				return b.Flush(ctx)
			}
			if err := b.Add(ctx, rec); err != nil {
				return err
			}
		}
	}
}

func (b *batchWriter) Total() int64 { return b.total }

func (b *batchWriter) Batches() int { return b.batches }
