package driven

// ConfigStore is flat key-value storage for settings. Keys are dotted paths
// ("embedding.model", "rag.top_k"); the settings service owns their meaning.
//
// Typed getters return the zero value when a key is absent or holds a
// different type, so callers supply their own defaults.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetFloat also accepts integer values.
	GetFloat(key string) float64

	// Set stores a value and persists it before returning. On a failed
	// write the previous value is kept.
	Set(key string, value any) error

	// Save writes every value to storage.
	Save() error

	// Load replaces the in-memory values with those in storage.
	Load() error

	// Path identifies the backing file, for display.
	Path() string
}
