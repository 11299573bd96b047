package storage

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
)

// Game results, as written in PGN.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
)

// Preferences stores engine settings shared by the commands.
type Preferences struct {
	Difficulty string        `json:"difficulty"`
	Depth      int           `json:"depth"`
	MoveTime   time.Duration `json:"move_time"`
	Seed       uint64        `json:"seed"`
	LastPlayed time.Time     `json:"last_played"`
}

// DefaultPreferences returns the settings used before any are saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty: "medium",
		Depth:      3,
		MoveTime:   3 * time.Second,
	}
}

// MatchStats aggregates every recorded self-play game.
type MatchStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByTermination map[string]int `json:"by_termination"`
	TotalPlies    int            `json:"total_plies"`
	LongestGame   int            `json:"longest_game"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewMatchStats returns empty statistics.
func NewMatchStats() *MatchStats {
	return &MatchStats{ByTermination: make(map[string]int)}
}

// GameRecord summarises one finished game.
type GameRecord struct {
	Result      string
	Termination string
	Plies       int
	Duration    time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
	mu sync.Mutex // serialises read-modify-write of stats
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePreferences saves engine preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads engine preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyPreferences, prefs)
	})
	return prefs, err
}

// LoadStats loads match statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*MatchStats, error) {
	stats := NewMatchStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyStats, stats)
	})
	return stats, err
}

// RecordGame folds a finished game into the stored statistics.
func (s *Storage) RecordGame(rec GameRecord) (*MatchStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := NewMatchStats()
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, keyStats, stats); err != nil {
			return err
		}
		if stats.ByTermination == nil {
			stats.ByTermination = make(map[string]int)
		}

		stats.GamesPlayed++
		stats.TotalPlies += rec.Plies
		stats.TotalPlayTime += rec.Duration
		if rec.Plies > stats.LongestGame {
			stats.LongestGame = rec.Plies
		}
		switch rec.Result {
		case ResultWhiteWins:
			stats.WhiteWins++
		case ResultBlackWins:
			stats.BlackWins++
		default:
			stats.Draws++
		}
		if rec.Termination != "" {
			stats.ByTermination[rec.Termination]++
		}

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), data)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ResetStats deletes all recorded statistics.
func (s *Storage) ResetStats() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyStats))
	})
}

// getJSON decodes key into v, leaving v untouched when the key is absent.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// AveragePlies returns the mean game length in plies.
func (s *MatchStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

// WhiteScore returns White's score as a percentage, counting draws as half.
func (s *MatchStats) WhiteScore() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(s.GamesPlayed) * 100
}
