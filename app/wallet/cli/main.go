// This program is a simple wallet for the ledger node.
package main

import "github.com/ardanlabs/voteledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
