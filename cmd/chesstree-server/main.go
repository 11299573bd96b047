package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hailam/chesstree/internal/server"
	"github.com/hailam/chesstree/internal/storage"
)

var (
	addr     = flag.String("addr", ":8080", "listen address")
	dbDir    = flag.String("db", "", "statistics database directory (default: user data dir)")
	noStats  = flag.Bool("nostats", false, "do not record finished games")
	origins  = flag.String("origins", "", "comma-separated CORS origins, empty disables CORS")
	logReqs  = flag.Bool("log", false, "log every request")
	maxDepth = flag.Int("maxdepth", 0, "deepest search a request may ask for (0 = default)")
	maxTime  = flag.Duration("maxmovetime", 10*time.Second, "longest search a request may ask for")
)

func main() {
	flag.Parse()

	cfg := server.Config{
		MaxDepth:     *maxDepth,
		MaxMoveTime:  *maxTime,
		AllowOrigins: *origins,
		LogRequests:  *logReqs,
	}

	if !*noStats {
		store, err := openStore()
		if err != nil {
			log.Fatalf("open statistics: %v", err)
		}
		defer store.Close()
		cfg.Store = store
	}

	srv := server.New(cfg)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Listen(*addr); err != nil {
		log.Fatal(err)
	}
}

func openStore() (*storage.Storage, error) {
	if *dbDir != "" {
		return storage.Open(*dbDir)
	}
	return storage.NewStorage()
}
