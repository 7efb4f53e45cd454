package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type amount struct {
	Account string  `json:"account"`
	Index   *uint64 `json:"index"`
	Amount  string  `json:"amount"`
}

var balanceIndex int64

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().Int64VarP(&balanceIndex, "index", "i", -1, "Past index to read the balance at.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	accountID, err := walletAccount()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("For Account:", accountID)

	url := fmt.Sprintf("%s/v1/balances/%s", publicURL, accountID)
	if balanceIndex >= 0 {
		url = fmt.Sprintf("%s/past/%d", url, balanceIndex)
	}

	var bal amount
	if err := get(url, &bal); err != nil {
		log.Fatal(err)
	}

	fmt.Println(bal.Amount)
}
