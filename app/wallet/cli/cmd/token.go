package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// record is the journal record the node returns for an accepted operation.
type record struct {
	Index  uint64 `json:"index"`
	Kind   string `json:"kind"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (r record) print() {
	fmt.Printf("index[%d] kind[%s] from[%s] to[%s] amount[%s]\n", r.Index, r.Kind, r.From, r.To, r.Amount)
}

var (
	to    string
	value string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer tokens from your account",
	Run:   transferRun,
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens to your account or the given one",
	Run:   mintRun,
}

var burnCmd = &cobra.Command{
	Use:   "burn",
	Short: "Burn tokens from your account",
	Run:   burnRun,
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVarP(&to, "to", "t", "", "Account or name to send to.")
	transferCmd.Flags().StringVarP(&value, "value", "v", "0", "Amount to send.")

	rootCmd.AddCommand(mintCmd)
	mintCmd.Flags().StringVarP(&to, "to", "t", "", "Account or name to mint to.")
	mintCmd.Flags().StringVarP(&value, "value", "v", "0", "Amount to mint.")

	rootCmd.AddCommand(burnCmd)
	burnCmd.Flags().StringVarP(&value, "value", "v", "0", "Amount to burn.")
}

func transferRun(cmd *cobra.Command, args []string) {
	accountID, err := walletAccount()
	if err != nil {
		log.Fatal(err)
	}

	req := struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}{
		From:   string(accountID),
		To:     to,
		Amount: value,
	}

	var tx record
	if err := post(fmt.Sprintf("%s/v1/token/transfer", privateURL), req, &tx); err != nil {
		log.Fatal(err)
	}

	tx.print()
}

func mintRun(cmd *cobra.Command, args []string) {
	account := to
	if account == "" {
		accountID, err := walletAccount()
		if err != nil {
			log.Fatal(err)
		}
		account = string(accountID)
	}

	req := struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}{
		To:     account,
		Amount: value,
	}

	var tx record
	if err := post(fmt.Sprintf("%s/v1/token/mint", privateURL), req, &tx); err != nil {
		log.Fatal(err)
	}

	tx.print()
}

func burnRun(cmd *cobra.Command, args []string) {
	accountID, err := walletAccount()
	if err != nil {
		log.Fatal(err)
	}

	req := struct {
		From   string `json:"from"`
		Amount string `json:"amount"`
	}{
		From:   string(accountID),
		Amount: value,
	}

	var tx record
	if err := post(fmt.Sprintf("%s/v1/token/burn", privateURL), req, &tx); err != nil {
		log.Fatal(err)
	}

	tx.print()
}
