package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// Metadata keys in the index_meta table.
const (
	metaDimension  = "dimension"
	metaModel      = "embedding_model"
	metaBuiltAt    = "built_at"
	metaEntryCount = "entry_count"
)

// IndexStore saves and loads index snapshots as SQLite files.
type IndexStore struct{}

// NewIndexStore creates a new SQLite index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// open opens the database at path with the store's pragmas.
func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Save writes the snapshot to path, replacing any previous index there.
func (s *IndexStore) Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	if snapshot == nil || len(snapshot.Entries) == 0 {
		return domain.ErrEmptyCorpus
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale temp file: %w", err)
	}

	if err := writeSnapshot(ctx, tmp, snapshot); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// writeSnapshot creates a fresh database at path holding snapshot.
func writeSnapshot(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(ctx, db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	meta := snapshot.Metadata
	dim := meta.Dimension
	if dim == 0 {
		dim = len(snapshot.Entries[0].Vector)
	}

	metaRows := map[string]string{
		metaDimension:  strconv.Itoa(dim),
		metaModel:      meta.EmbeddingModel,
		metaBuiltAt:    meta.BuiltAt.UTC().Format(time.RFC3339Nano),
		metaEntryCount: strconv.Itoa(len(snapshot.Entries)),
	}
	for key, value := range metaRows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("saving metadata %s: %w", key, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (seq, id, document_id, page_index, char_offset, content, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for seq, e := range snapshot.Entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has dimension %d, index dimension is %d",
				domain.ErrInvalidInput, e.ID, len(e.Vector), dim)
		}

		metadataJSON, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, seq, e.ID, e.Chunk.DocumentID, e.Chunk.PageIndex,
			e.Chunk.Offset, e.Chunk.Content, string(metadataJSON), float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads the snapshot at path.
func (s *IndexStore) Load(ctx context.Context, path string) (*domain.IndexSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("checking index file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrCorruptIndex, path)
	}

	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	meta, count, err := loadMetadata(ctx, db)
	if err != nil {
		return nil, err
	}

	entries, err := loadEntries(ctx, db, meta.Dimension)
	if err != nil {
		return nil, err
	}
	if len(entries) != count {
		return nil, fmt.Errorf("%w: metadata records %d entries, found %d",
			domain.ErrCorruptIndex, count, len(entries))
	}

	return &domain.IndexSnapshot{Metadata: meta, Entries: entries}, nil
}

// loadMetadata reads index_meta and returns the metadata and recorded entry count.
func loadMetadata(ctx context.Context, db *sql.DB) (domain.IndexMetadata, int, error) {
	var meta domain.IndexMetadata

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM index_meta`)
	if err != nil {
		return meta, 0, fmt.Errorf("%w: reading metadata: %w", domain.ErrCorruptIndex, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return meta, 0, fmt.Errorf("%w: scanning metadata: %w", domain.ErrCorruptIndex, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return meta, 0, fmt.Errorf("%w: reading metadata: %w", domain.ErrCorruptIndex, err)
	}

	dim, err := strconv.Atoi(values[metaDimension])
	if err != nil || dim <= 0 {
		return meta, 0, fmt.Errorf("%w: invalid dimension %q", domain.ErrCorruptIndex, values[metaDimension])
	}
	count, err := strconv.Atoi(values[metaEntryCount])
	if err != nil || count < 0 {
		return meta, 0, fmt.Errorf("%w: invalid entry count %q", domain.ErrCorruptIndex, values[metaEntryCount])
	}

	meta.Dimension = dim
	meta.EmbeddingModel = values[metaModel]
	if builtAt := values[metaBuiltAt]; builtAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, builtAt); err == nil {
			meta.BuiltAt = t
		}
	}

	return meta, count, nil
}

// loadEntries reads every entry in insertion order and checks each vector against dim.
func loadEntries(ctx context.Context, db *sql.DB, dim int) ([]domain.IndexEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, page_index, char_offset, content, metadata, vector
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: reading entries: %w", domain.ErrCorruptIndex, err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var e domain.IndexEntry
		var metadataJSON string
		var vectorBlob []byte

		if err := rows.Scan(&e.ID, &e.Chunk.DocumentID, &e.Chunk.PageIndex, &e.Chunk.Offset,
			&e.Chunk.Content, &metadataJSON, &vectorBlob); err != nil {
			return nil, fmt.Errorf("%w: scanning entry: %w", domain.ErrCorruptIndex, err)
		}

		if len(vectorBlob) != dim*4 {
			return nil, fmt.Errorf("%w: entry %s has %d vector bytes, want %d",
				domain.ErrCorruptIndex, e.ID, len(vectorBlob), dim*4)
		}
		e.Vector = bytesToFloat32Slice(vectorBlob)
		e.Chunk.ID = e.ID

		if metadataJSON != "" && metadataJSON != "null" {
			if err := json.Unmarshal([]byte(metadataJSON), &e.Chunk.Metadata); err != nil {
				return nil, fmt.Errorf("%w: entry %s metadata: %w", domain.ErrCorruptIndex, e.ID, err)
			}
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading entries: %w", domain.ErrCorruptIndex, err)
	}

	return entries, nil
}

// Remove deletes the index at path. Missing files are not an error.
func (s *IndexStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing index: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
