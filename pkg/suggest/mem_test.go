package suggest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var longPatterns = [][]string{
	{"a", "ab", "abc", "abcd", "abcde"},
	{"h", "he", "hel", "hell", "hello"},
	{"p", "pr", "pro", "prog", "progr", "progra", "program"},
	{"c", "co", "com", "comp", "compu", "comput", "computer"},
	{"i", "in", "int", "inte", "inter", "intern", "interna", "internat", "internati", "internatio", "internation", "internationa", "international"},
	{"d", "de", "dev", "deve", "devel", "develo", "develop", "developm", "developme", "developmen", "development"},
}

// memProvider records every pattern prefix as a word, weighted by length.
func memProvider(t testing.TB) *Provider {
	t.Helper()
	p := NewProvider(WithLimit(10))
	for _, pattern := range longPatterns {
		for i, word := range pattern {
			for n := 0; n <= i; n++ {
				require.NoError(t, p.RecordSubmission(word))
			}
		}
	}
	return p
}

func heapAlloc() int64 {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return int64(m.HeapAlloc)
}

func TestMemoryQueriesBasic(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, iterations := range []int{100, 1000, 2500} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			p := memProvider(t)
			baseline := heapAlloc()

			ops := 0
			for i := 0; i < iterations; i++ {
				for _, pattern := range longPatterns {
					for _, prefix := range pattern {
						_ = p.Suggest(prefix)
						ops++
					}
				}
			}

			memPerOp := float64(heapAlloc()-baseline) / float64(ops)
			t.Logf("iterations=%d ops=%d mem_per_op=%.2f", iterations, ops, memPerOp)
			if memPerOp > 1000 {
				t.Errorf("excessive memory retained per query: %.2f bytes", memPerOp)
			}
		})
	}
}

func TestMemoryConcurrentRecordAndQuery(t *testing.T) {
	defer goleak.VerifyNone(t)

	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 400},
		{workers: 4, iterationsPerWorker: 100},
		{workers: 8, iterationsPerWorker: 50},
	}

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", cfg.workers, cfg.iterationsPerWorker), func(t *testing.T) {
			p := memProvider(t)
			words := p.Stats()["words"]
			baseline := heapAlloc()

			var wg sync.WaitGroup
			for w := 0; w < cfg.workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for iter := 0; iter < cfg.iterationsPerWorker; iter++ {
						for _, pattern := range longPatterns {
							for _, prefix := range pattern {
								_ = p.Suggest(prefix)
							}
							// resubmitting known words must not grow the trie
							_ = p.RecordSubmission(pattern[len(pattern)-1])
						}
					}
				}()
			}
			wg.Wait()

			profile, err := os.Create(filepath.Join(t.TempDir(), "heap.prof"))
			require.NoError(t, err)
			defer profile.Close()
			require.NoError(t, pprof.WriteHeapProfile(profile))

			delta := heapAlloc() - baseline
			t.Logf("workers=%d mem_delta=%d bytes", cfg.workers, delta)
			require.Equal(t, words, p.Stats()["words"])
			if delta > 1<<20 {
				t.Errorf("excessive memory retained: %d bytes", delta)
			}
		})
	}
}
