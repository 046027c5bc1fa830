// Package prefs persists per-chat delivery preferences as a single JSON snapshot file.
//
// Every operation reads the whole snapshot, optionally mutates it in memory and writes
// the whole snapshot back. One mutex serializes these cycles for the process.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/edgard/quotebot/internal/quotes"
)

// Defaults applied to records created for a chat seen for the first time.
const (
	DefaultTime     = "09:00"
	DefaultCategory = quotes.Motivational
)

var (
	// ErrInvalidFormat is returned for a time that is not HH:MM in 24-hour form.
	ErrInvalidFormat = errors.New("invalid time format")
	// ErrUnknownCategory is returned for a category missing from the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrStoreIO is returned when the snapshot cannot be read, decoded or written.
	ErrStoreIO = errors.New("preference store i/o failure")
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Record is the stored preference of one chat.
type Record struct {
	Time     string `json:"time"     validate:"required,hhmm"`
	Category string `json:"category" validate:"required,category"`
}

// DefaultRecord returns the record given to new chats.
func DefaultRecord() Record {
	return Record{Time: DefaultTime, Category: DefaultCategory}
}

// Store is the snapshot-backed preference store. It is safe for concurrent use.
type Store struct {
	fs       afero.Fs
	path     string
	catalog  *quotes.Catalog
	validate *validator.Validate
	logger   *slog.Logger

	mu          sync.Mutex
	established bool
}

// NewStore creates a store whose snapshot lives at path on fsys.
func NewStore(fsys afero.Fs, path string, catalog *quotes.Catalog, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if catalog == nil {
		catalog = quotes.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return catalog.Has(fl.Field().String())
	})

	return &Store{
		fs:       fsys,
		path:     path,
		catalog:  catalog,
		validate: v,
		logger:   logger.With("component", "prefs_store", "path", path),
	}
}

// Load returns the full snapshot. A snapshot that was never written reads as empty.
func (s *Store) Load(ctx context.Context) (map[int64]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Save replaces the snapshot with records. Invalid records reject the whole write.
func (s *Store) Save(ctx context.Context, records map[int64]Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for chatID, rec := range records {
		if err := s.check(rec); err != nil {
			return fmt.Errorf("chat %d: %w", chatID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, records)
}

// GetOrCreate returns the record for chatID, creating and persisting the default one
// when the chat has none. created reports whether a record was written.
func (s *Store) GetOrCreate(ctx context.Context, chatID int64) (rec Record, created bool, err error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return Record{}, false, err
	}
	if rec, ok := records[chatID]; ok {
		return rec, false, nil
	}

	rec = DefaultRecord()
	records[chatID] = rec
	if err := s.save(ctx, records); err != nil {
		return Record{}, false, err
	}

	s.logger.InfoContext(ctx, "Created preference record", "chat_id", chatID)
	return rec, true, nil
}

// SetTime stores value as the delivery time of chatID.
func (s *Store) SetTime(ctx context.Context, chatID int64, value string) (Record, error) {
	value = strings.TrimSpace(value)
	if err := s.validate.Var(value, "hhmm"); err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}

	return s.update(ctx, chatID, func(rec *Record) { rec.Time = value })
}

// SetCategory stores the normalized category as the preferred category of chatID.
func (s *Store) SetCategory(ctx context.Context, chatID int64, value string) (Record, error) {
	category := quotes.Normalize(value)
	if !s.catalog.Has(category) {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}

	return s.update(ctx, chatID, func(rec *Record) { rec.Category = category })
}

func (s *Store) update(ctx context.Context, chatID int64, mutate func(*Record)) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return Record{}, err
	}

	rec, ok := records[chatID]
	if !ok {
		rec = DefaultRecord()
	}
	mutate(&rec)
	records[chatID] = rec

	if err := s.save(ctx, records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) check(rec Record) error {
	if err := s.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Category" {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, rec.Category)
		}
		return fmt.Errorf("%w: %q", ErrInvalidFormat, rec.Time)
	}
	return nil
}

// load must be called with mu held.
func (s *Store) load(ctx context.Context) (map[int64]Record, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !s.established {
			s.logger.DebugContext(ctx, "No snapshot yet, starting with empty store")
			return make(map[int64]Record), nil
		}
		s.logger.ErrorContext(ctx, "Failed to read snapshot", "error", err)
		return nil, fmt.Errorf("%w: read snapshot: %v", ErrStoreIO, err)
	}

	records := make(map[int64]Record)
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			s.logger.ErrorContext(ctx, "Failed to decode snapshot", "error", err)
			return nil, fmt.Errorf("%w: decode snapshot: %v", ErrStoreIO, err)
		}
	}

	s.established = true
	return records, nil
}

// save must be called with mu held. The snapshot is written to a temporary file in the
// same directory and renamed over the target.
func (s *Store) save(ctx context.Context, records map[int64]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrStoreIO, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %v", ErrStoreIO, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create temporary snapshot", "error", err)
		return fmt.Errorf("%w: create temp snapshot: %v", ErrStoreIO, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(append(data, '\n'))
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = s.fs.Remove(tmpName)
		s.logger.ErrorContext(ctx, "Failed to write snapshot", "error", err)
		return fmt.Errorf("%w: write snapshot: %v", ErrStoreIO, err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		s.logger.ErrorContext(ctx, "Failed to replace snapshot", "error", err)
		return fmt.Errorf("%w: replace snapshot: %v", ErrStoreIO, err)
	}

	s.established = true
	s.logger.DebugContext(ctx, "Snapshot saved", "records", len(records))
	return nil
}
