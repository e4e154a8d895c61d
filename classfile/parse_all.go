package classfile

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/javabinary/errors"
)

// ParseAll parses many class files concurrently. Each class is decoded
// with its own constant pool, so one failure does not affect the others.
// The returned slice is index-aligned with blobs and holds nil for every
// class that failed; the error aggregates all failures.
func ParseAll(ctx context.Context, blobs [][]byte, opts ...Option) ([]*Class, error) {
	cfg := newConfig(opts)
	classes := make([]*Class, len(blobs))
	jobs := make(chan int)

	var mu sync.Mutex
	var result *multierror.Error
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		result = multierror.Append(result, err)
	}

	var wg sync.WaitGroup
	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c, err := parse(blobs[i], cfg)
				if err != nil {
					fail(errors.Wrapf(err, "class file %d", i))
					continue
				}
				classes[i] = c
			}
		}()
	}

feed:
	for i := range blobs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			fail(ctx.Err())
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return classes, result.ErrorOrNil()
}
