package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var delegateCmd = &cobra.Command{
	Use:   "delegate [delegatee]",
	Short: "Delegate the voting power of your account. No delegatee removes the delegation.",
	Args:  cobra.MaximumNArgs(1),
	Run:   delegateRun,
}

func init() {
	rootCmd.AddCommand(delegateCmd)
}

func delegateRun(cmd *cobra.Command, args []string) {
	accountID, err := walletAccount()
	if err != nil {
		log.Fatal(err)
	}

	var delegatee string
	if len(args) == 1 {
		delegatee = args[0]
	}

	req := struct {
		Account   string `json:"account"`
		Delegatee string `json:"delegatee"`
	}{
		Account:   string(accountID),
		Delegatee: delegatee,
	}

	var tx record
	if err := post(fmt.Sprintf("%s/v1/delegate", privateURL), req, &tx); err != nil {
		log.Fatal(err)
	}

	tx.print()
}
