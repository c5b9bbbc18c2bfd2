package generator

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestTerminationClaimOnce(t *testing.T) {
	const claimers = 64
	var (
		term  termination
		wins  atomic.Int32
		start = make(chan struct{})
		wg    sync.WaitGroup
	)
	wg.Add(claimers)
	for i := 0; i < claimers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if term.claim() {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := wins.Load(); n != 1 {
		t.Fatalf("%d claims succeeded, want 1", n)
	}
	if !term.done() {
		t.Error("flag not set after claim")
	}
	if term.claim() {
		t.Error("claim succeeded on a set flag")
	}
}
