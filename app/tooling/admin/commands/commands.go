// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Accounts writes every account the ledger has seen.
func Accounts(w io.Writer, st *state.State) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Clock: %d\tSupply: %s\n\n", st.QueryClock(), supply(st))
	fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tVOTES\tDELEGATE")
	for _, info := range st.QueryAccounts() {
		delegate := string(info.Delegate)
		if delegate == "" {
			delegate = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Account, info.Balance.Dec(), info.Votes.Dec(), delegate)
	}

	return tw.Flush()
}

// Journal writes the journal records, optionally only the ones that involve
// the specified account.
func Journal(w io.Writer, account string, st *state.State) error {
	var accountID database.AccountID
	if account != "" {
		var err error
		if accountID, err = database.ToAccountID(account); err != nil {
			return err
		}
	}

	txs, err := st.QueryJournalByAccount(accountID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKIND\tFROM\tTO\tAMOUNT")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.Index, tx.Kind, tx.From, tx.To, tx.Amount)
	}

	return tw.Flush()
}

// Votes writes the current votes of an account or the votes at a past index.
func Votes(w io.Writer, account string, index string, st *state.State) error {
	accountID, err := database.ToAccountID(account)
	if err != nil {
		return err
	}

	if index == "" {
		votes := st.QueryVotes(accountID)
		fmt.Fprintf(w, "Account: %s  Votes: %s\n", accountID, votes.Dec())
		return nil
	}

	n, err := strconv.ParseUint(index, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", index, err)
	}

	votes, err := st.QueryPastVotes(accountID, n)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Account: %s  Index: %d  Votes: %s\n", accountID, n, votes.Dec())
	return nil
}

// Audit checks the ledger invariants over the whole journal.
func Audit(w io.Writer, st *state.State) error {
	index, records := st.QueryJournalLatest()

	if err := st.Audit(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Audit passed: records[%d] latest index[%d] supply[%s]\n", records, index, supply(st))
	return nil
}

func supply(st *state.State) string {
	total := st.QueryTotalSupply()
	return total.Dec()
}
