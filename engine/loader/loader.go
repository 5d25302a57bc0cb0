// package loader reads track catalogues from JSON exports and normalizes
// them into TrackRecords for the scene. It abstracts the on-disk shape
// (a bare track array or a {"tracks": [...]} envelope) and manages a cache
// of previously loaded catalogues.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BUka228/musical-soul/common"
)

// defaultPopularity is assigned to tracks whose export carries no popularity
// score, landing them in the middle of the size range.
const defaultPopularity = 50

// trackJSON mirrors the catalogue export schema.
type trackJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Duration   float64 `json:"duration"` // seconds
	Genre      string  `json:"genre"`
	CoverURL   string  `json:"cover_url"`
	PreviewURL string  `json:"preview_url"`
	Available  *bool   `json:"available"`
	Popularity *int    `json:"popularity"`
}

// catalogueJSON is the enveloped export shape.
type catalogueJSON struct {
	Tracks []trackJSON `json:"tracks"`
}

// CatalogueStats summarizes a loaded catalogue.
type CatalogueStats struct {
	// Total is the number of records in the catalogue.
	Total int
	// Available is the number of records marked available.
	Available int
	// Genres is the per-genre record count.
	Genres map[string]int
	// TotalDuration is the summed track duration.
	TotalDuration time.Duration
}

// String renders a one-line human-readable summary, genres in descending
// count order.
func (s CatalogueStats) String() string {
	type genreCount struct {
		genre string
		count int
	}
	counts := make([]genreCount, 0, len(s.Genres))
	for g, n := range s.Genres {
		counts = append(counts, genreCount{genre: g, count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].genre < counts[j].genre
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%d tracks (%d available, %s total)", s.Total, s.Available, s.TotalDuration)
	for i, gc := range counts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d", gc.genre, gc.count)
	}
	return b.String()
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	logger *zap.Logger

	cache map[string][]common.TrackRecord
}

// Loader defines the public-facing interface for loading and caching track
// catalogues.
type Loader interface {
	// Load reads a catalogue file and caches the result by path.
	// If the catalogue is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the catalogue JSON
	//
	// Returns:
	//   - []common.TrackRecord: the normalized records
	//   - error: error if reading or decoding fails
	Load(path string) ([]common.TrackRecord, error)

	// LoadReader reads a catalogue from a reader stream and caches it by the
	// given name. Accepts either a bare track array or a {"tracks": [...]}
	// envelope.
	//
	// Parameters:
	//   - name: the cache key for the loaded catalogue
	//   - r: the reader providing catalogue JSON
	//
	// Returns:
	//   - []common.TrackRecord: the normalized records
	//   - error: error if decoding fails
	LoadReader(name string, r io.Reader) ([]common.TrackRecord, error)

	// Get retrieves a cached catalogue by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []common.TrackRecord: the cached records or nil
	Get(name string) []common.TrackRecord

	// Stats computes summary statistics for a record set.
	//
	// Parameters:
	//   - records: the records to summarize
	//
	// Returns:
	//   - CatalogueStats: the summary
	Stats(records []common.TrackRecord) CatalogueStats
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the given options applied.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the newly created loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger: zap.NewNop(),
		cache:  make(map[string][]common.TrackRecord),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) ([]common.TrackRecord, error) {
	l.mu.RLock()
	cached, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open catalogue %q: %w", path, err)
	}
	defer f.Close()

	return l.LoadReader(path, f)
}

func (l *loader) LoadReader(name string, r io.Reader) ([]common.TrackRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: read catalogue %q: %w", name, err)
	}

	tracks, err := decodeTracks(data)
	if err != nil {
		return nil, fmt.Errorf("loader: decode catalogue %q: %w", name, err)
	}

	records := make([]common.TrackRecord, 0, len(tracks))
	generated := 0
	for _, t := range tracks {
		rec := normalize(t)
		if t.ID == "" {
			generated++
		}
		records = append(records, rec)
	}
	if generated > 0 {
		l.logger.Warn("generated IDs for tracks missing one",
			zap.String("catalogue", name),
			zap.Int("count", generated),
		)
	}

	l.mu.Lock()
	l.cache[name] = records
	l.mu.Unlock()

	l.logger.Info("catalogue loaded",
		zap.String("catalogue", name),
		zap.Int("tracks", len(records)),
	)
	return records, nil
}

func (l *loader) Get(name string) []common.TrackRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Stats(records []common.TrackRecord) CatalogueStats {
	stats := CatalogueStats{
		Total:  len(records),
		Genres: make(map[string]int),
	}
	for _, rec := range records {
		if rec.Available {
			stats.Available++
		}
		stats.Genres[rec.Genre]++
		stats.TotalDuration += time.Duration(rec.DurationSeconds) * time.Second
	}
	return stats
}

// decodeTracks accepts either a bare JSON array of tracks or the enveloped
// {"tracks": [...]} shape.
func decodeTracks(data []byte) ([]trackJSON, error) {
	var bare []trackJSON
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var enveloped catalogueJSON
	if err := json.Unmarshal(data, &enveloped); err != nil {
		return nil, err
	}
	if enveloped.Tracks == nil {
		return nil, fmt.Errorf("no track array found")
	}
	return enveloped.Tracks, nil
}

// normalize converts one export entry into a TrackRecord: a missing ID gets
// a generated UUID, a missing genre becomes "unknown", popularity defaults
// to the midpoint and clamps to [0, 100], and availability defaults to true.
func normalize(t trackJSON) common.TrackRecord {
	rec := common.TrackRecord{
		ID:              common.Coalesce(t.ID, uuid.NewString()),
		Title:           strings.TrimSpace(t.Title),
		Artist:          strings.TrimSpace(t.Artist),
		Album:           strings.TrimSpace(t.Album),
		Genre:           common.Coalesce(strings.ToLower(strings.TrimSpace(t.Genre)), "unknown"),
		DurationSeconds: int(t.Duration),
		Popularity:      defaultPopularity,
		Available:       true,
	}
	if t.Popularity != nil {
		rec.Popularity = min(max(*t.Popularity, 0), 100)
	}
	if t.Available != nil {
		rec.Available = *t.Available
	}
	if rec.DurationSeconds < 0 {
		rec.DurationSeconds = 0
	}
	return rec
}
