// maia evaluates positions or reviews games from the command line and
// prints JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/chess-vn/maia/internal/analysis"
	"github.com/chess-vn/maia/internal/app/bootstrap"
	"github.com/chess-vn/maia/internal/config"
	"github.com/chess-vn/maia/internal/domains/dtos"
	"github.com/chess-vn/maia/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "eval":
		err = cmdEval(args)
	case "review":
		err = cmdReview(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`maia - human move prediction

Usage: maia <command> [options]

Commands:
  eval      Evaluate one or more FEN positions
  review    Evaluate every position of the games in a PGN file

Settings are read from ./configs/maia/app.env and the environment.
Use "maia <command> -h" for command-specific help.`)
}

type commonFlags struct {
	model  *string
	config *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		model:  fs.String("model", "", "ONNX model path (overrides MODEL_PATH)"),
		config: fs.String("config", "", "env file (defaults to ./configs/maia/app.env)"),
	}
}

func (c commonFlags) open(ctx context.Context) (*bootstrap.Runtime, config.Config, error) {
	var files []string
	if *c.config != "" {
		files = append(files, *c.config)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, config.Config{}, err
	}
	if *c.model != "" {
		cfg.ModelPath = *c.model
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return nil, config.Config{}, err
	}
	rt, err := bootstrap.New(ctx, cfg)
	return rt, cfg, err
}

func cmdEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	common := addCommonFlags(fs)
	self := fs.Int("elo-self", 0, "rating of the side to move (defaults to DEFAULT_ELO)")
	oppo := fs.Int("elo-oppo", 0, "rating of the opponent (defaults to DEFAULT_ELO)")
	top := fs.Int("top", 0, "only print the N most likely moves")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: maia eval [options] <fen>...")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no position given")
	}

	ctx := context.Background()
	rt, cfg, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if *self == 0 {
		*self = cfg.DefaultElo
	}
	if *oppo == 0 {
		*oppo = cfg.DefaultElo
	}
	reqs := make([]analysis.Request, 0, fs.NArg())
	for _, fen := range fs.Args() {
		reqs = append(reqs, analysis.Request{Fen: fen, EloSelf: *self, EloOppo: *oppo})
	}
	evals, err := rt.Service.EvaluateFENs(ctx, reqs)
	if err != nil {
		return err
	}

	resp := dtos.BatchEvaluationResponseFromEntities(evals)
	if *top > 0 {
		for i, e := range resp.Evaluations {
			if len(e.Policy) > *top {
				resp.Evaluations[i].Policy = e.Policy[:*top]
			}
		}
	}
	return printJson(resp)
}

func cmdReview(args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: maia review [options] <file.pgn>")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one PGN file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := context.Background()
	rt, _, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	reviews, err := rt.Service.ReviewGames(ctx, f)
	if err != nil {
		return err
	}
	return printJson(dtos.ReviewResponseFromEntities(reviews))
}

func printJson(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
