package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var votesIndex int64

var votesCmd = &cobra.Command{
	Use:   "votes [account]",
	Short: "Print the voting power of your account or the given one.",
	Args:  cobra.MaximumNArgs(1),
	Run:   votesRun,
}

func init() {
	rootCmd.AddCommand(votesCmd)
	votesCmd.Flags().Int64VarP(&votesIndex, "index", "i", -1, "Past index to read the votes at.")
}

func votesRun(cmd *cobra.Command, args []string) {
	var account string
	switch len(args) {
	case 1:
		account = args[0]
	default:
		accountID, err := walletAccount()
		if err != nil {
			log.Fatal(err)
		}
		account = string(accountID)
	}

	url := fmt.Sprintf("%s/v1/votes/%s", publicURL, account)
	if votesIndex >= 0 {
		url = fmt.Sprintf("%s/past/%d", url, votesIndex)
	}

	var votes amount
	if err := get(url, &votes); err != nil {
		log.Fatal(err)
	}

	if votes.Index != nil {
		fmt.Printf("%s votes at %d: %s\n", votes.Account, *votes.Index, votes.Amount)
		return
	}
	fmt.Printf("%s votes: %s\n", votes.Account, votes.Amount)
}
