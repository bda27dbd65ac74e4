// Package memory implements the repository interfaces with in-process
// collections. It is the default backend: state lives for the process
// lifetime and nothing touches disk.
//
// CONCURRENCY:
// Go's HTTP server runs one goroutine per request, so every
// read-modify-write here needs explicit mutual exclusion. Each store gets
// its own mutex:
//
//   - usersMu guards the user slice, both lookup indexes, and the id counter
//     (id assignment and uniqueness checks must be one atomic step)
//   - creaturesMu guards the creature slice (delete reads-then-removes and
//     must be atomic against a concurrent delete of the same id)
//   - sharesMu guards the share map
//
// Within a store, operations observe a total order consistent with arrival —
// the mutex gives us that for free.
//
// Values handed out are copies, never pointers into the store's collections,
// so callers can't mutate stored state behind the mutex's back.
package memory

import (
	"sync"

	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// compile-time checks that *Store implements all three repository interfaces
var (
	_ repository.UserRepository     = (*Store)(nil)
	_ repository.CreatureRepository = (*Store)(nil)
	_ repository.ShareRepository    = (*Store)(nil)
)

// Store owns the three in-memory collections. Construct with New; the zero
// value is not usable.
type Store struct {
	usersMu      sync.Mutex
	users        []model.User
	byEmail      map[string]int // lowercased email → index into users
	byProviderID map[string]int // provider id → index into users
	nextUserID   int64

	creaturesMu sync.Mutex
	creatures   []model.Creature

	sharesMu sync.Mutex
	shares   map[string]model.Share
}

// New creates an empty Store. User ids start at 1.
func New() *Store {
	return &Store{
		byEmail:      make(map[string]int),
		byProviderID: make(map[string]int),
		nextUserID:   1,
		shares:       make(map[string]model.Share),
	}
}
