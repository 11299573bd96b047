package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/storage"
	"github.com/hailam/chesstree/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	usePrefs   = flag.Bool("prefs", false, "start at the difficulty saved in the preferences database")
)

func main() {
	flag.Parse()
	// stdout belongs to the protocol.
	log.SetOutput(os.Stderr)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine()
	if *usePrefs {
		if err := loadDifficulty(eng); err != nil {
			log.Printf("Warning: preferences not loaded: %v", err)
		}
	}

	if err := uci.New(eng, os.Stdout).Run(os.Stdin); err != nil {
		log.Print(err)
	}
}

func loadDifficulty(eng *engine.Engine) error {
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}
	d, ok := engine.ParseDifficulty(prefs.Difficulty)
	if !ok {
		return nil
	}
	eng.SetDifficulty(d)
	log.Printf("difficulty %s", d)
	return nil
}
