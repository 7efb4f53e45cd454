package ledger_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	blkclock "github.com/ardanlabs/voteledger/foundation/blockchain/clock"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/ledger"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	acctA = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	acctB = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	acctC = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

// clock is a manually driven sequence index.
type clock struct {
	current uint64
}

func (c *clock) Current() uint64 {
	return c.current
}

func amount(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

func newLedger(t *testing.T, clk *clock) *ledger.Ledger {
	l, err := ledger.New(ledger.Config{Clock: clk})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}
	return l
}

func mustVotes(t *testing.T, l *ledger.Ledger, account database.AccountID, exp uint64) {
	t.Helper()

	got := l.Votes(account)
	if got.Uint64() != exp {
		t.Fatalf("\t%s\tShould have %d votes for %s: got %d", failed, exp, account, got.Uint64())
	}
	t.Logf("\t%s\tShould have %d votes for %s.", success, exp, account)
}

func mustPastVotes(t *testing.T, l *ledger.Ledger, account database.AccountID, index uint64, exp uint64) {
	t.Helper()

	got, err := l.PastVotes(account, index)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to read past votes at %d: %v", failed, index, err)
	}
	if got.Uint64() != exp {
		t.Fatalf("\t%s\tShould have %d past votes at %d for %s: got %d", failed, exp, index, account, got.Uint64())
	}
	t.Logf("\t%s\tShould have %d past votes at %d for %s.", success, exp, index, account)
}

// =============================================================================

func TestScenarios(t *testing.T) {
	clk := clock{current: 100}
	l := newLedger(t, &clk)

	t.Log("Given the need to track delegated voting power over time.")
	{
		t.Log("\tTest 0:\tWhen minting and self delegating.")
		{
			if err := l.OnBalanceChange(acctA, amount(10), 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mint: %v", failed, err)
			}
			mustVotes(t, l, acctA, 0)

			clk.current = 101
			if err := l.Delegate(acctA, acctA, 101); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delegate: %v", failed, err)
			}
			mustVotes(t, l, acctA, 10)
			mustPastVotes(t, l, acctA, 100, 0)

			if _, err := l.PastVotes(acctA, 101); !errors.Is(err, ledger.ErrFutureIndexQuery) {
				t.Fatalf("\t%s\tTest 0:\tShould not read votes at the current index: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not read votes at the current index.", success)

			clk.current = 102
			mustPastVotes(t, l, acctA, 101, 10)
		}

		t.Log("\tTest 1:\tWhen transferring to an account with no delegate.")
		{
			if err := l.OnBalanceChange(acctA, amount(6), 102); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to debit: %v", failed, err)
			}
			if err := l.OnBalanceChange(acctB, amount(4), 102); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to credit: %v", failed, err)
			}
			mustVotes(t, l, acctA, 6)
			mustVotes(t, l, acctB, 0)

			if supply := l.TotalSupply(); supply.Uint64() != 10 {
				t.Fatalf("\t%s\tTest 1:\tShould have a total supply of 10: got %d", failed, supply.Uint64())
			}
			t.Logf("\t%s\tTest 1:\tShould have an unchanged total supply.", success)
		}

		t.Log("\tTest 2:\tWhen delegating to another account.")
		{
			clk.current = 103
			if err := l.Delegate(acctB, acctA, 103); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to delegate: %v", failed, err)
			}

			clk.current = 104
			mustPastVotes(t, l, acctA, 102, 6)
			mustPastVotes(t, l, acctA, 103, 10)
			mustVotes(t, l, acctA, 10)
			mustVotes(t, l, acctB, 0)

			if d := l.Delegates(acctB); d != acctA {
				t.Fatalf("\t%s\tTest 2:\tShould have %s as the delegate: got %q", failed, acctA, d)
			}
			t.Logf("\t%s\tTest 2:\tShould have the new delegate recorded.", success)
		}

		t.Log("\tTest 3:\tWhen querying the current index.")
		{
			if _, err := l.PastVotes(acctA, 104); !errors.Is(err, ledger.ErrFutureIndexQuery) {
				t.Fatalf("\t%s\tTest 3:\tShould fail with a future index error: got %v", failed, err)
			}
			if _, err := l.PastTotalSupply(104); !errors.Is(err, ledger.ErrFutureIndexQuery) {
				t.Fatalf("\t%s\tTest 3:\tShould fail total supply with a future index error: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould fail with a future index error.", success)

			supply, err := l.PastTotalSupply(99)
			if err != nil || !supply.IsZero() {
				t.Fatalf("\t%s\tTest 3:\tShould have zero supply before the first mint: got %d, %v", failed, supply.Uint64(), err)
			}
			t.Logf("\t%s\tTest 3:\tShould have zero supply before the first mint.", success)
		}

		t.Log("\tTest 4:\tWhen changing a balance twice at one index.")
		{
			clk.current = 199
			if err := l.Delegate(acctC, acctC, 199); err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to delegate: %v", failed, err)
			}
			if n := l.NumCheckpoints(acctC); n != 0 {
				t.Fatalf("\t%s\tTest 4:\tShould not checkpoint an empty delegation: got %d", failed, n)
			}

			clk.current = 200
			if err := l.OnBalanceChange(acctC, amount(5), 200); err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to mint: %v", failed, err)
			}
			if err := l.OnBalanceChange(acctC, amount(7), 200); err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to adjust: %v", failed, err)
			}

			if n := l.NumCheckpoints(acctC); n != 1 {
				t.Fatalf("\t%s\tTest 4:\tShould have a single checkpoint: got %d", failed, n)
			}
			cp, err := l.Checkpoint(acctC, 0)
			if err != nil || cp.Index != 200 || cp.Value.Uint64() != 7 {
				t.Fatalf("\t%s\tTest 4:\tShould have checkpoint 200=7: got %d=%d, %v", failed, cp.Index, cp.Value.Uint64(), err)
			}
			t.Logf("\t%s\tTest 4:\tShould coalesce into a single checkpoint.", success)
		}

		if err := l.Audit(); err != nil {
			t.Fatalf("\t%s\tShould pass the audit: %v", failed, err)
		}
		t.Logf("\t%s\tShould pass the audit.", success)
	}
}

func TestFailuresLeaveStateUnchanged(t *testing.T) {
	clk := clock{current: 10}
	l, err := ledger.New(ledger.Config{Clock: &clk, MaxSupply: amount(100)})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}

	l.OnBalanceChange(acctA, amount(60), 10)
	l.Delegate(acctA, acctB, 10)

	t.Log("Given the need to reject invalid mutations without side effects.")
	{
		t.Log("\tTest 0:\tWhen writing at an older index.")
		{
			if err := l.OnBalanceChange(acctA, amount(1), 9); !errors.Is(err, ledger.ErrOutOfOrderWrite) {
				t.Fatalf("\t%s\tTest 0:\tShould fail balance change with out of order: got %v", failed, err)
			}
			if err := l.Delegate(acctA, acctC, 9); !errors.Is(err, ledger.ErrOutOfOrderWrite) {
				t.Fatalf("\t%s\tTest 0:\tShould fail delegate with out of order: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with out of order.", success)

			mustVotes(t, l, acctB, 60)
			mustVotes(t, l, acctC, 0)
		}

		t.Log("\tTest 1:\tWhen minting past the maximum supply.")
		{
			clk.current = 11
			if err := l.OnBalanceChange(acctC, amount(41), 11); !errors.Is(err, ledger.ErrSupplyOverflow) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with supply overflow: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with supply overflow.", success)

			if bal := l.BalanceOf(acctC); !bal.IsZero() {
				t.Fatalf("\t%s\tTest 1:\tShould leave the balance unchanged: got %d", failed, bal.Uint64())
			}
			if supply := l.TotalSupply(); supply.Uint64() != 60 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the supply unchanged: got %d", failed, supply.Uint64())
			}
			t.Logf("\t%s\tTest 1:\tShould leave the ledger unchanged.", success)

			if err := l.OnBalanceChange(acctC, amount(40), 11); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mint up to the maximum: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to mint up to the maximum.", success)
		}

		t.Log("\tTest 2:\tWhen delegating to the current delegate.")
		{
			clk.current = 12
			before := l.NumCheckpoints(acctB)
			if err := l.Delegate(acctA, acctB, 12); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould accept the same delegate: %v", failed, err)
			}
			if after := l.NumCheckpoints(acctB); after != before {
				t.Fatalf("\t%s\tTest 2:\tShould not add checkpoints: got %d, exp %d", failed, after, before)
			}
			mustVotes(t, l, acctB, 60)
		}

		t.Log("\tTest 3:\tWhen removing a delegation.")
		{
			if err := l.Delegate(acctA, "", 12); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to remove the delegate: %v", failed, err)
			}
			mustVotes(t, l, acctB, 0)

			if _, exists := l.DelegateOf(acctA); exists {
				t.Fatalf("\t%s\tTest 3:\tShould have no delegate recorded.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould have no delegate recorded.", success)
		}
	}
}

// =============================================================================

// model is a brute force rendition of the ledger used to check the
// properties of the real one.
type model struct {
	balances  map[database.AccountID]uint64
	delegates map[database.AccountID]database.AccountID
}

type snapshot struct {
	votes     map[database.AccountID]uint64
	balances  map[database.AccountID]uint64
	supply    uint64
	delegated uint64
}

func (m model) snapshot(accounts []database.AccountID) snapshot {
	s := snapshot{
		votes:    make(map[database.AccountID]uint64),
		balances: make(map[database.AccountID]uint64),
	}

	for _, a := range accounts {
		bal := m.balances[a]
		s.balances[a] = bal
		s.supply += bal

		if d, exists := m.delegates[a]; exists {
			s.votes[d] += bal
			s.delegated += bal
		}
	}

	return s
}

func TestProperties(t *testing.T) {
	accounts := []database.AccountID{
		acctA,
		acctB,
		acctC,
		"0x2D3B7F8A5cC2b4a8E0F1F5C9A6B7E9D0C1A2B3C4",
		"0x9a1B2c3D4e5F60718293a4B5c6D7e8F901a2B3c4",
	}

	rnd := rand.New(rand.NewSource(7))
	clk := clock{current: 1}
	l := newLedger(t, &clk)

	m := model{
		balances:  make(map[database.AccountID]uint64),
		delegates: make(map[database.AccountID]database.AccountID),
	}

	snapshots := make(map[uint64]snapshot)
	early := make(map[uint64]uint256.Int)

	const steps = 2000

	t.Log("Given the need to keep the ledger histories consistent.")
	{
		for step := 0; step < steps; step++ {

			// Move the clock forward some of the time. The snapshot of an index
			// is the final state once the clock has moved past it.
			if rnd.Intn(3) == 0 {
				snapshots[clk.current] = m.snapshot(accounts)
				clk.current += uint64(1 + rnd.Intn(3))

				// Capture a past value to show it never changes later.
				if len(early) < 20 {
					idx := clk.current - 1
					v, err := l.PastVotes(accounts[0], idx)
					if err != nil {
						t.Fatalf("\t%s\tShould be able to read past votes: %v", failed, err)
					}
					early[idx] = v
				}
			}

			a := accounts[rnd.Intn(len(accounts))]
			b := accounts[rnd.Intn(len(accounts))]
			idx := clk.current

			switch rnd.Intn(4) {
			case 0:
				v := m.balances[a] + uint64(rnd.Intn(1000))
				if err := l.OnBalanceChange(a, amount(v), idx); err != nil {
					t.Fatalf("\t%s\tShould be able to mint: %v", failed, err)
				}
				m.balances[a] = v

			case 1:
				v := uint64(rnd.Int63n(int64(m.balances[a]) + 1))
				if err := l.OnBalanceChange(a, amount(v), idx); err != nil {
					t.Fatalf("\t%s\tShould be able to burn: %v", failed, err)
				}
				m.balances[a] = v

			case 2:
				if a == b {
					continue
				}
				v := uint64(rnd.Int63n(int64(m.balances[a]) + 1))
				if err := l.OnBalanceChange(a, amount(m.balances[a]-v), idx); err != nil {
					t.Fatalf("\t%s\tShould be able to debit: %v", failed, err)
				}
				if err := l.OnBalanceChange(b, amount(m.balances[b]+v), idx); err != nil {
					t.Fatalf("\t%s\tShould be able to credit: %v", failed, err)
				}
				m.balances[a] -= v
				m.balances[b] += v

			case 3:
				var d database.AccountID
				if rnd.Intn(5) != 0 {
					d = b
				}

				// Delegating to the current delegate must not change power.
				if cur, exists := m.delegates[a]; exists && cur == d {
					before := l.Votes(d)
					if err := l.Delegate(a, d, idx); err != nil {
						t.Fatalf("\t%s\tShould accept the same delegate: %v", failed, err)
					}
					if after := l.Votes(d); !after.Eq(&before) {
						t.Fatalf("\t%s\tShould not change power for the same delegate.", failed)
					}
					continue
				}

				if err := l.Delegate(a, d, idx); err != nil {
					t.Fatalf("\t%s\tShould be able to delegate: %v", failed, err)
				}
				if d.IsZero() {
					delete(m.delegates, a)
				} else {
					m.delegates[a] = d
				}
			}
		}

		snapshots[clk.current] = m.snapshot(accounts)
		clk.current++

		t.Logf("\t%s\tShould be able to apply %d random mutations.", success, steps)

		for idx, snap := range snapshots {
			supply, err := l.PastTotalSupply(idx)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to read past supply at %d: %v", failed, idx, err)
			}
			if supply.Uint64() != snap.supply {
				t.Fatalf("\t%s\tShould have supply %d at %d: got %d", failed, snap.supply, idx, supply.Uint64())
			}

			var balances, votes uint64
			for _, a := range accounts {
				bal, err := l.PastBalanceOf(a, idx)
				if err != nil {
					t.Fatalf("\t%s\tShould be able to read past balance: %v", failed, err)
				}
				if bal.Uint64() != snap.balances[a] {
					t.Fatalf("\t%s\tShould have balance %d for %s at %d: got %d", failed, snap.balances[a], a, idx, bal.Uint64())
				}
				balances += bal.Uint64()

				v, err := l.PastVotes(a, idx)
				if err != nil {
					t.Fatalf("\t%s\tShould be able to read past votes: %v", failed, err)
				}
				if v.Uint64() != snap.votes[a] {
					t.Fatalf("\t%s\tShould have votes %d for %s at %d: got %d", failed, snap.votes[a], a, idx, v.Uint64())
				}
				votes += v.Uint64()
			}

			if balances != supply.Uint64() {
				t.Fatalf("\t%s\tShould conserve supply at %d: balances %d, supply %d", failed, idx, balances, supply.Uint64())
			}
			if votes != snap.delegated {
				t.Fatalf("\t%s\tShould conserve power at %d: votes %d, delegated %d", failed, idx, votes, snap.delegated)
			}
		}
		t.Logf("\t%s\tShould match the model at %d past indexes.", success, len(snapshots))
		t.Logf("\t%s\tShould conserve supply and power at every index.", success)

		for idx, exp := range early {
			got, err := l.PastVotes(accounts[0], idx)
			if err != nil || !got.Eq(&exp) {
				t.Fatalf("\t%s\tShould return a stable past value at %d: got %s, exp %s", failed, idx, got.Dec(), exp.Dec())
			}
		}
		t.Logf("\t%s\tShould return stable past values.", success)

		for _, a := range accounts {
			cps := l.PowerHistory(a)
			for i := 1; i < len(cps); i++ {
				if cps[i].Index <= cps[i-1].Index {
					t.Fatalf("\t%s\tShould have strictly increasing checkpoints for %s.", failed, a)
				}
			}
		}
		t.Logf("\t%s\tShould have strictly increasing checkpoints.", success)

		if err := l.Audit(); err != nil {
			t.Fatalf("\t%s\tShould pass the audit: %v", failed, err)
		}
		t.Logf("\t%s\tShould pass the audit.", success)
	}
}

func TestConcurrentReaders(t *testing.T) {
	clk := blkclock.New(1)

	l, err := ledger.New(ledger.Config{Clock: clk})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}

	if err := l.OnBalanceChange(acctA, amount(100), 1); err != nil {
		t.Fatalf("\t%s\tShould be able to credit %s: %v", failed, acctA, err)
	}
	if err := l.Delegate(acctA, acctB, 1); err != nil {
		t.Fatalf("\t%s\tShould be able to delegate: %v", failed, err)
	}
	clk.Advance()

	t.Log("Given the need to read the ledger while it is being written.")
	{
		const writes = 500
		const readers = 4

		var wg sync.WaitGroup
		wg.Add(readers)

		done := make(chan struct{})
		errs := make(chan string, readers)

		for range readers {
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}

					if v := l.Votes(acctB); v.Uint64() != 0 && v.Uint64() != 100 {
						errs <- "partial votes observed"
						return
					}

					past, err := l.PastVotes(acctB, 1)
					if err != nil || past.Uint64() != 100 {
						errs <- "past votes changed"
						return
					}
				}
			}()
		}

		for i := range writes {
			to := acctC
			if i%2 == 1 {
				to = acctB
			}
			if err := l.Delegate(acctA, to, clk.Current()); err != nil {
				close(done)
				wg.Wait()
				t.Fatalf("\t%s\tShould be able to re-delegate: %v", failed, err)
			}
			clk.Advance()
		}

		close(done)
		wg.Wait()
		close(errs)

		for msg := range errs {
			t.Fatalf("\t%s\tShould only observe complete mutations: %s", failed, msg)
		}
		t.Logf("\t%s\tShould only observe complete mutations.", success)

		if err := l.Audit(); err != nil {
			t.Fatalf("\t%s\tShould pass the audit: %v", failed, err)
		}
		t.Logf("\t%s\tShould pass the audit.", success)
	}
}

func TestRollback(t *testing.T) {
	clk := clock{current: 5}
	l := newLedger(t, &clk)

	if err := l.OnBalanceChange(acctA, amount(100), 1); err != nil {
		t.Fatalf("\t%s\tShould be able to credit %s: %v", failed, acctA, err)
	}
	if err := l.Delegate(acctA, acctB, 1); err != nil {
		t.Fatalf("\t%s\tShould be able to delegate: %v", failed, err)
	}

	t.Log("Given the need to undo an operation that could not be recorded.")
	{
		l.Begin()

		if err := l.OnBalanceChange(acctA, amount(150), 1); err != nil {
			t.Fatalf("\t%s\tShould be able to credit at the same index: %v", failed, err)
		}
		if err := l.Delegate(acctA, acctC, 2); err != nil {
			t.Fatalf("\t%s\tShould be able to re-delegate: %v", failed, err)
		}

		l.Rollback()

		mustVotes(t, l, acctB, 100)
		mustVotes(t, l, acctC, 0)

		if got := l.Delegates(acctA); got != acctB {
			t.Fatalf("\t%s\tShould restore the delegate of %s: got %s", failed, acctA, got)
		}
		if n := l.NumCheckpoints(acctB); n != 1 {
			t.Fatalf("\t%s\tShould keep one checkpoint for %s: got %d", failed, acctB, n)
		}
		if n := l.NumCheckpoints(acctC); n != 0 {
			t.Fatalf("\t%s\tShould remove the checkpoints of %s: got %d", failed, acctC, n)
		}
		if supply := l.TotalSupply(); supply.Uint64() != 100 {
			t.Fatalf("\t%s\tShould restore the total supply of 100: got %d", failed, supply.Uint64())
		}
		t.Logf("\t%s\tShould restore the ledger as it was before the operation.", success)

		if err := l.Delegate(acctA, acctC, 1); err != nil {
			t.Fatalf("\t%s\tShould accept a write at the restored index: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a write at the restored index.", success)

		if err := l.Audit(); err != nil {
			t.Fatalf("\t%s\tShould pass the audit: %v", failed, err)
		}
		t.Logf("\t%s\tShould pass the audit.", success)
	}
}

func TestOnBalanceChanges(t *testing.T) {
	clk := clock{current: 5}
	l, err := ledger.New(ledger.Config{Clock: &clk, MaxSupply: amount(100)})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}

	if err := l.OnBalanceChange(acctA, amount(100), 1); err != nil {
		t.Fatalf("\t%s\tShould be able to credit %s: %v", failed, acctA, err)
	}
	if err := l.Delegate(acctA, acctA, 1); err != nil {
		t.Fatalf("\t%s\tShould be able to delegate: %v", failed, err)
	}

	t.Log("Given the need to apply both sides of a transfer as one step.")
	{
		t.Log("\tTest 0:\tWhen the second change can not be applied.")
		{
			changes := []database.BalanceChange{
				{Account: acctA, Balance: amount(60)},
				{Account: acctB, Balance: amount(41)},
			}

			if err := l.OnBalanceChanges(changes, 2); !errors.Is(err, ledger.ErrSupplyOverflow) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with a supply overflow: got %v", failed, err)
			}

			if bal := l.BalanceOf(acctA); bal.Uint64() != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the balance of %s at 100: got %d", failed, acctA, bal.Uint64())
			}
			if n := l.NumCheckpoints(acctA); n != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould leave one checkpoint for %s: got %d", failed, acctA, n)
			}
			t.Logf("\t%s\tTest 0:\tShould apply neither change.", success)
		}

		t.Log("\tTest 1:\tWhen both changes can be applied.")
		{
			changes := []database.BalanceChange{
				{Account: acctA, Balance: amount(60)},
				{Account: acctB, Balance: amount(40)},
			}

			if err := l.OnBalanceChanges(changes, 2); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to apply the changes: %v", failed, err)
			}

			mustVotes(t, l, acctA, 60)
			if supply := l.TotalSupply(); supply.Uint64() != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the total supply at 100: got %d", failed, supply.Uint64())
			}
			t.Logf("\t%s\tTest 1:\tShould keep the total supply at 100.", success)
		}
	}
}
