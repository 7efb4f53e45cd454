package clock_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/voteledger/foundation/blockchain/clock"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestBlock(t *testing.T) {
	t.Log("Given the need to hand out a non decreasing block number.")
	{
		clk := clock.New(100)

		if got := clk.Current(); got != 100 {
			t.Fatalf("\t%s\tShould start at 100: got %d", failed, got)
		}
		t.Logf("\t%s\tShould start at 100.", success)

		const g = 50

		var wg sync.WaitGroup
		wg.Add(g)
		for i := 0; i < g; i++ {
			go func() {
				defer wg.Done()
				clk.Advance()
			}()
		}
		wg.Wait()

		if got := clk.Current(); got != 100+g {
			t.Fatalf("\t%s\tShould be at %d after concurrent advances: got %d", failed, 100+g, got)
		}
		t.Logf("\t%s\tShould be at %d after concurrent advances.", success, 100+g)

		if err := clk.Restore(10); err == nil {
			t.Fatalf("\t%s\tShould not move backwards.", failed)
		}
		t.Logf("\t%s\tShould not move backwards.", success)

		if err := clk.Restore(500); err != nil || clk.Current() != 500 {
			t.Fatalf("\t%s\tShould restore forward to 500: got %d, %v", failed, clk.Current(), err)
		}
		t.Logf("\t%s\tShould restore forward to 500.", success)
	}
}
