package public

import (
	"github.com/ardanlabs/voteledger/foundation/blockchain/checkpoint"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
)

type clock struct {
	Index    uint64 `json:"index"`
	AutoMine bool   `json:"auto_mine"`
	Records  int    `json:"journal_records"`
}

type account struct {
	Account  database.AccountID `json:"account"`
	Name     string             `json:"name"`
	Balance  string             `json:"balance"`
	Votes    string             `json:"votes"`
	Delegate database.AccountID `json:"delegate,omitempty"`
}

func toAccount(info state.AccountInfo, name string) account {
	return account{
		Account:  info.Account,
		Name:     name,
		Balance:  info.Balance.Dec(),
		Votes:    info.Votes.Dec(),
		Delegate: info.Delegate,
	}
}

type amount struct {
	Account database.AccountID `json:"account,omitempty"`
	Index   *uint64            `json:"index,omitempty"`
	Amount  string             `json:"amount"`
}

type delegation struct {
	Account  database.AccountID `json:"account"`
	Delegate database.AccountID `json:"delegate,omitempty"`
	Since    *uint64            `json:"since,omitempty"`
}

type point struct {
	Index uint64 `json:"index"`
	Votes string `json:"votes"`
}

func toPoints(cps []checkpoint.Checkpoint) []point {
	points := make([]point, len(cps))
	for i, cp := range cps {
		points[i] = point{
			Index: cp.Index,
			Votes: cp.Value.Dec(),
		}
	}
	return points
}
