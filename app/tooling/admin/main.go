// This program performs administrative tasks for the ledger node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/voteledger/app/tooling/admin/commands"
	"github.com/ardanlabs/voteledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
	"github.com/ardanlabs/voteledger/foundation/blockchain/storage"
	"github.com/ardanlabs/voteledger/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			Storage     string `conf:"default:disk,help:disk|leveldb"`
			DBPath      string `conf:"default:zblock/journal.db"`
			GenesisPath string `conf:"default:zblock/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	journal, err := storage.Open(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open %s storage: %w", cfg.State.Storage, err)
	}

	// Rebuild the ledger from the journal. Blocks are never produced here
	// so the clock stays one past the last recorded index.
	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: journal,
		EvHandler: func(v string, args ...any) {
			log.Debugf(v, args...)
		},
	})
	if err != nil {
		journal.Close()
		return err
	}
	defer st.Shutdown()

	return processCommands(cfg.Args, st)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, st *state.State) error {
	switch args.Num(0) {
	case "accounts":
		if err := commands.Accounts(os.Stdout, st); err != nil {
			return fmt.Errorf("listing accounts: %w", err)
		}

	case "journal":
		if err := commands.Journal(os.Stdout, args.Num(1), st); err != nil {
			return fmt.Errorf("listing journal: %w", err)
		}

	case "votes":
		if err := commands.Votes(os.Stdout, args.Num(1), args.Num(2), st); err != nil {
			return fmt.Errorf("reading votes: %w", err)
		}

	case "audit":
		if err := commands.Audit(os.Stdout, st); err != nil {
			return fmt.Errorf("auditing ledger: %w", err)
		}

	default:
		fmt.Println("accounts:              list every account with balance, votes and delegate")
		fmt.Println("journal [account]:     list journal records, optionally for one account")
		fmt.Println("votes account [index]: show current or past votes for an account")
		fmt.Println("audit:                 check the ledger invariants")
		return commands.ErrHelp
	}

	return nil
}
