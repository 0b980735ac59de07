package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"genesys/internal/logging"
)

type contextKey struct{}

type functionKey struct{}

// DefaultSaveDelay is how long Track waits before flushing to disk.
const DefaultSaveDelay = 5 * time.Second

// Tracker manages token usage recording and persistence.
type Tracker struct {
	mu        sync.Mutex
	data      UsageData
	filePath  string
	saveDelay time.Duration
	timer     *time.Timer
	closed    bool
}

// NewTracker creates a tracker persisting to filePath. Existing data at that
// path is loaded; a corrupt file is logged and replaced on the next save.
func NewTracker(filePath string) (*Tracker, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create usage dir: %w", err)
		}
	}

	t := &Tracker{
		filePath:  filePath,
		saveDelay: DefaultSaveDelay,
		data: UsageData{
			Version:   "1.0",
			Aggregate: newAggregate(),
		},
	}

	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("Ignoring unreadable usage file %s: %v", filePath, err)
	}

	return t, nil
}

// Path returns the file the tracker persists to.
func (t *Tracker) Path() string {
	return t.filePath
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var loaded UsageData
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	agg := newAggregate()
	agg.Total = loaded.Aggregate.Total
	agg.Calls = loaded.Aggregate.Calls
	mergeInto(agg.ByProvider, loaded.Aggregate.ByProvider)
	mergeInto(agg.ByModel, loaded.Aggregate.ByModel)
	mergeInto(agg.ByOperation, loaded.Aggregate.ByOperation)
	mergeInto(agg.ByFunction, loaded.Aggregate.ByFunction)

	t.data.Version = loaded.Version
	t.data.Aggregate = agg
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Track records one model call. The analysis function, if any, is taken
// from ctx (see WithFunction).
func (t *Tracker) Track(ctx context.Context, model, provider string, input, output int, operation string) {
	function := FunctionFromContext(ctx)
	if function == "" {
		function = "none"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Total.Add(input, output)
	agg.Calls++
	addToMap(agg.ByProvider, provider, input, output)
	addToMap(agg.ByModel, model, input, output)
	addToMap(agg.ByOperation, operation, input, output)
	addToMap(agg.ByFunction, function, input, output)

	// Debounced auto-save
	if t.timer == nil && !t.closed {
		t.timer = time.AfterFunc(t.saveDelay, t.flush)
	}
}

func (t *Tracker) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = nil
	if err := t.saveLocked(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("Failed to save usage: %v", err)
	}
}

// Close cancels any pending auto-save and writes the final state.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.closed = true
	return t.saveLocked()
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.ByFunction = copyTokenCountsMap(stats.ByFunction)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func mergeInto(dst, src map[string]TokenCounts) {
	for key, counts := range src {
		dst[key] = counts
	}
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

// WithFunction tags ctx with the analysis function a model call serves.
func WithFunction(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, functionKey{}, name)
}

// FunctionFromContext returns the function set by WithFunction, or "".
func FunctionFromContext(ctx context.Context) string {
	name, _ := ctx.Value(functionKey{}).(string)
	return name
}
