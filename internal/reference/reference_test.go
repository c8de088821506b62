package reference

import (
	"strings"
	"sync"
	"testing"
)

func TestReferencesArePrefixed(t *testing.T) {
	g := New()
	if ref := g.Deposit(); !strings.HasPrefix(ref, "tx_") {
		t.Fatalf("unexpected deposit reference %s", ref)
	}
	if ref := g.Withdrawal(); !strings.HasPrefix(ref, "wd_") {
		t.Fatalf("unexpected withdrawal reference %s", ref)
	}
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	g := New()

	const workers = 50
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ref := g.Deposit()
				mu.Lock()
				if _, dup := seen[ref]; dup {
					t.Errorf("duplicate reference %s", ref)
				}
				seen[ref] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d unique references, got %d", workers*perWorker, len(seen))
	}
}
