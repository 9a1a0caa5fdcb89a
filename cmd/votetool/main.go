// votetool is a command line adapter over the voting core: it lists
// proposals, registers a passport-derived identity, casts votes and can
// expose the local HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/freedomtool/passport-voting/api"
	"github.com/freedomtool/passport-voting/config"
	"github.com/freedomtool/passport-voting/log"
	"github.com/freedomtool/passport-voting/relayer"
	"github.com/freedomtool/passport-voting/storage"
	"github.com/freedomtool/passport-voting/voter"
	"github.com/freedomtool/passport-voting/web3"
)

const usage = `usage: votetool [flags] <command>

commands:
  list                          list all proposals
  show <id>                     show one proposal
  register <sod> <dg1> <cert>   verify the passport files and store an identity
  vote <id> <option> [option]   cast a vote for the given option indices
  serve                         expose the local HTTP API
`

// well-known local development key, defined in the dev chain genesis
const devAccountPrivKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func main() {
	w3rpc := flag.String("w3rpc", "http://localhost:8545", "web3 rpc endpoint")
	relayerURL := flag.String("relayer", "", "relayer vote endpoint (relayer mode)")
	votingContract := flag.String("voting-contract", "", "voting contract address")
	registrationContract := flag.String("registration-contract", "", "registration contract address")
	mode := flag.String("mode", "relayer", "submission mode: relayer or direct")
	privKey := flag.String("privkey", devAccountPrivKey, "private key for direct mode")
	mockProofs := flag.Bool("mock-proofs", false, "emit random proof points instead of proving")
	wasmPath := flag.String("wasm", "", "path to the circuit wasm")
	zkeyPath := flag.String("zkey", "", "path to the proving key")
	dataDir := flag.String("datadir", "votetool-db", "directory for the local database")
	apiHost := flag.String("api-host", "127.0.0.1", "HTTP API host (serve command)")
	apiPort := flag.Int("api-port", 8090, "HTTP API port (serve command)")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := &config.Config{
		Web3Endpoint:         *w3rpc,
		RelayerEndpoint:      *relayerURL,
		VotingContract:       common.HexToAddress(*votingContract),
		RegistrationContract: common.HexToAddress(*registrationContract),
		Mode:                 config.SubmitMode(*mode),
		MockProofs:           *mockProofs,
		DevPrivKey:           *privKey,
		CircuitWasmPath:      *wasmPath,
		ProvingKeyPath:       *zkeyPath,
		DataDir:              *dataDir,
		LogLevel:             *logLevel,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	cli, err := web3.New(ctx, cfg.Web3Endpoint, cfg.VotingContract, cfg.RegistrationContract)
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	database, err := metadb.New(db.TypePebble, cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	store := storage.New(database)
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("failed to close storage", "error", err.Error())
		}
	}()

	var submitter voter.Submitter
	switch cfg.Mode {
	case config.SubmitModeRelayer:
		submitter, err = relayer.New(cfg.RelayerEndpoint)
	case config.SubmitModeDirect:
		submitter, err = web3.NewTxSender(cli, cfg.DevPrivKey)
	}
	if err != nil {
		log.Fatal(err)
	}

	prove := voter.MockProver()
	if !cfg.MockProofs {
		if prove, err = voter.NewRapidsnarkProver(cfg.CircuitWasmPath, cfg.ProvingKeyPath); err != nil {
			log.Fatal(err)
		}
	}
	v := voter.New(cli, submitter, store, prove)

	switch flag.Arg(0) {
	case "list":
		proposals, err := cli.EnumerateProposals(ctx)
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range proposals {
			fmt.Printf("%d\t%s\t%s\t%d votes\n", p.ID, p.Status, p.Title, p.TotalVotes())
		}

	case "show":
		id := parseID(flag.Arg(1))
		info, err := cli.ProposalInfo(ctx, id)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(info.String())

	case "register":
		if flag.NArg() != 4 {
			log.Fatalf("register needs <sod> <dg1> <cert> file paths")
		}
		sodData := readFile(flag.Arg(1))
		dg1 := readFile(flag.Arg(2))
		cert := readFile(flag.Arg(3))
		identity, err := voter.RegisterIdentity(store, sodData, dg1, cert)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("identity registered (citizenship %s)\n", identity.Citizenship)

	case "vote":
		if flag.NArg() < 3 {
			log.Fatalf("vote needs a proposal id and at least one option index")
		}
		id := parseID(flag.Arg(1))
		var selected []int
		for _, arg := range flag.Args()[2:] {
			opt, err := strconv.Atoi(arg)
			if err != nil {
				log.Fatalf("invalid option index %q", arg)
			}
			selected = append(selected, opt)
		}
		proposal, err := cli.ProposalInfo(ctx, id)
		if err != nil {
			log.Fatal(err)
		}
		txID, err := v.CastVote(ctx, proposal, selected, func(p voter.Progress) {
			fmt.Printf("[%s]\n", p)
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("vote submitted: %s\n", txID)

	case "serve":
		if _, err := api.New(&api.APIConfig{
			Host:      *apiHost,
			Port:      *apiPort,
			Proposals: cli,
			Votes:     v,
		}); err != nil {
			log.Fatal(err)
		}
		log.Infow("API server running", "host", *apiHost, "port", *apiPort)
		select {}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func parseID(arg string) uint64 {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		log.Fatalf("invalid proposal id %q", arg)
	}
	return id
}

func readFile(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	return data
}
