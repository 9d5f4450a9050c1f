// internal/common/catalog/store.go
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"product-chat-workers/internal/models"

	"github.com/google/uuid"
)

// Snapshot is an immutable view of the catalog. Every reload produces a new
// snapshot with a fresh version; analytics cached under an old version can
// never be served against newer data.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	Products []models.Product
}

// FindByName matches a product by exact name, case-insensitively, in either
// language.
func (s *Snapshot) FindByName(name string) (*models.Product, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range s.Products {
		if strings.ToLower(s.Products[i].Name) == needle || s.Products[i].NameAR == strings.TrimSpace(name) {
			return &s.Products[i], true
		}
	}
	return nil, false
}

// MatchInText returns the products whose name or category appears inside
// free-form query text. English matching is case-insensitive; Arabic names
// are matched verbatim.
func (s *Snapshot) MatchInText(text string) []models.Product {
	lower := strings.ToLower(text)

	var matched []models.Product
	for _, p := range s.Products {
		if strings.Contains(lower, strings.ToLower(p.Name)) ||
			(p.NameAR != "" && strings.Contains(text, p.NameAR)) ||
			strings.Contains(lower, strings.ToLower(p.Category)) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Store holds the current snapshot and swaps it atomically on reload.
type Store struct {
	mu       sync.RWMutex
	source   Source
	snapshot *Snapshot
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Reload pulls the full catalog from the source. On any error the previous
// snapshot stays in place untouched.
func (st *Store) Reload(ctx context.Context) (*Snapshot, error) {
	products, err := st.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:  uuid.New().String(),
		LoadedAt: time.Now().UTC(),
		Products: products,
	}

	st.mu.Lock()
	st.snapshot = snap
	st.mu.Unlock()

	return snap, nil
}

// Snapshot returns the current catalog view, or nil before the first load.
func (st *Store) Snapshot() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snapshot
}
