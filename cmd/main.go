package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/richard-senior/tactimerge/internal/logger"
	"github.com/richard-senior/tactimerge/pkg/util/xg"
)

func main() {
	if _, err := xg.LoadConfig(); err != nil {
		logger.Error("Configuration error:", err)
		os.Exit(2)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "clean":
		err = runClean(os.Args[2:])
	case "ingest":
		err = runIngest(os.Args[2:])
	case "strengths":
		err = runStrengths(os.Args[2:])
	case "predict":
		err = runPredict(os.Args[2:])
	case "compare":
		err = runCompare(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tactimerge <command> [flags]

commands:
  clean      clean raw xG CSVs (dedupe, median-fill, date normalize)
  ingest     load cleaned xG CSVs into the match history database
  strengths  compute and persist the versioned team strength table
  predict    predict the scoreline for home vs away
  compare    head-to-head strength comparison for two teams`)
}

// runClean processes one raw CSV, or the whole raw directory when -input is
// omitted
func runClean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	input := fs.String("input", "", "raw history CSV (defaults to every CSV in the raw directory)")
	output := fs.String("output", "", "cleaned CSV path (single-file mode only)")
	fs.Parse(args)

	if *input != "" && *output != "" {
		return xg.CleanFile(*input, *output)
	}
	return xg.CleanDir(xg.Config.RawDir, xg.Config.CleanDir)
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	input := fs.String("input", "", "cleaned history CSV to ingest (required)")
	fs.Parse(args)

	if *input == "" {
		return fmt.Errorf("ingest requires -input")
	}

	records, err := xg.LoadHistoryCSV(*input)
	if err != nil {
		return err
	}

	store, err := xg.OpenHistoryStore(xg.Config.HistoryDbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.Ingest(xg.CleanRecords(records))
	if err != nil {
		return err
	}

	logger.Info("Ingest complete:", count, "records")
	return nil
}

// runStrengths is the offline estimator run: it reads history from a CSV or
// from the history database, computes strengths and writes the versioned
// table. It never touches the serving cache.
func runStrengths(args []string) error {
	fs := flag.NewFlagSet("strengths", flag.ExitOnError)
	input := fs.String("input", "", "cleaned history CSV (omit to read the history database)")
	output := fs.String("output", xg.Config.StrengthsPath, "output strengths CSV base path")
	fill := fs.String("fill", xg.Config.FillMethod, "null-fill strategy: league_mean, team_median or zero")
	version := fs.String("version", xg.Config.Version, "version tag for the output file")
	fs.Parse(args)

	var records []*xg.MatchRecord
	var err error
	if *input != "" {
		records, err = xg.LoadHistoryCSV(*input)
		if err != nil {
			return err
		}
	} else {
		store, storeErr := xg.OpenHistoryStore(xg.Config.HistoryDbPath)
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()
		records, err = store.All()
		if err != nil {
			return err
		}
	}

	table, err := xg.ComputeStrengths(records, *fill, *version)
	if err != nil {
		return err
	}

	path, err := xg.SaveStrengthTable(table, *output)
	if err != nil {
		return err
	}

	logger.Info("Strength table written to", path)
	return nil
}

func runPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	home := fs.String("home", "", "home team name (required)")
	away := fs.String("away", "", "away team name (required)")
	fs.Parse(args)

	if *home == "" || *away == "" {
		return fmt.Errorf("predict requires -home and -away")
	}

	table, err := xg.GetStrengths()
	if err != nil {
		return err
	}

	result, err := xg.Predict(*home, *away, table)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	teamA := fs.String("a", "", "first team name (required)")
	teamB := fs.String("b", "", "second team name (required)")
	fs.Parse(args)

	if *teamA == "" || *teamB == "" {
		return fmt.Errorf("compare requires -a and -b")
	}

	table, err := xg.GetStrengths()
	if err != nil {
		return err
	}

	result, err := xg.Compare(*teamA, *teamB, table)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(value interface{}) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
