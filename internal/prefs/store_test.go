package prefs_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/edgard/quotebot/internal/prefs"
	"github.com/edgard/quotebot/internal/quotes"
)

const snapshotPath = "/data/user_data.json"

func newStore(t *testing.T) (*prefs.Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return prefs.NewStore(fsys, snapshotPath, quotes.Default(), nil), fsys
}

func readSnapshot(t *testing.T, fsys afero.Fs) map[string]map[string]string {
	t.Helper()
	data, err := afero.ReadFile(fsys, snapshotPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return raw
}

func TestLoadMissingSnapshotIsEmpty(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() = %v, want empty", records)
	}
}

func TestLoadAfterSnapshotRemovedFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, fsys := newStore(t)
	if _, _, err := store.GetOrCreate(ctx, 1); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if err := fsys.Remove(snapshotPath); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, prefs.ErrStoreIO) {
		t.Errorf("Load() error = %v, want ErrStoreIO", err)
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	t.Parallel()

	store, fsys := newStore(t)
	if err := afero.WriteFile(fsys, snapshotPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, prefs.ErrStoreIO) {
		t.Errorf("Load() error = %v, want ErrStoreIO", err)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, fsys := newStore(t)

	first, created, err := store.GetOrCreate(ctx, 123)
	if err != nil || !created {
		t.Fatalf("first GetOrCreate() = %v, %v, %v", first, created, err)
	}
	second, created, err := store.GetOrCreate(ctx, 123)
	if err != nil || created {
		t.Fatalf("second GetOrCreate() = %v, %v, %v", second, created, err)
	}
	if first != second || first != prefs.DefaultRecord() {
		t.Errorf("records differ: %v vs %v", first, second)
	}

	raw := readSnapshot(t, fsys)
	want := map[string]map[string]string{"123": {"time": "09:00", "category": "motivational"}}
	if fmt.Sprint(raw) != fmt.Sprint(want) {
		t.Errorf("snapshot = %v, want %v", raw, want)
	}
}

func TestSetTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr error
	}{
		{input: "00:00"},
		{input: "09:00"},
		{input: "14:30"},
		{input: "23:59"},
		{input: " 07:05 "},
		{input: "25:61", wantErr: prefs.ErrInvalidFormat},
		{input: "24:00", wantErr: prefs.ErrInvalidFormat},
		{input: "9:00", wantErr: prefs.ErrInvalidFormat},
		{input: "09:0", wantErr: prefs.ErrInvalidFormat},
		{input: "abc", wantErr: prefs.ErrInvalidFormat},
		{input: "", wantErr: prefs.ErrInvalidFormat},
		{input: "12:60", wantErr: prefs.ErrInvalidFormat},
		{input: "12-30", wantErr: prefs.ErrInvalidFormat},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store, _ := newStore(t)
			if _, err := store.SetTime(ctx, 7, "18:45"); err != nil {
				t.Fatalf("seed SetTime() error = %v", err)
			}

			rec, err := store.SetTime(ctx, 7, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("SetTime(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}

			records, err := store.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := "18:45"
			if tc.wantErr == nil {
				want = rec.Time
			}
			if got := records[7].Time; got != want {
				t.Errorf("stored time = %q, want %q", got, want)
			}
		})
	}
}

func TestSetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{input: "motivational", want: "motivational"},
		{input: "Inspirational", want: "inspirational"},
		{input: "LIFE", want: "life"},
		{input: "love", want: "love"},
		{input: "loveletters", wantErr: prefs.ErrUnknownCategory},
		{input: "", wantErr: prefs.ErrUnknownCategory},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store, _ := newStore(t)
			if _, _, err := store.GetOrCreate(ctx, 9); err != nil {
				t.Fatal(err)
			}

			_, err := store.SetCategory(ctx, 9, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("SetCategory(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}

			records, err := store.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := tc.want
			if tc.wantErr != nil {
				want = prefs.DefaultCategory
			}
			if got := records[9].Category; got != want {
				t.Errorf("stored category = %q, want %q", got, want)
			}
		})
	}
}

func TestSetCategoryUnknownLeavesAbsentChatAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, fsys := newStore(t)

	if _, err := store.SetCategory(ctx, 55, "loveletters"); !errors.Is(err, prefs.ErrUnknownCategory) {
		t.Fatalf("SetCategory() error = %v", err)
	}
	if ok, _ := afero.Exists(fsys, snapshotPath); ok {
		t.Error("snapshot written for rejected category")
	}
}

func TestSetTimeCreatesRecordForUnknownChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t)

	rec, err := store.SetTime(ctx, 77, "06:15")
	if err != nil {
		t.Fatal(err)
	}
	if rec != (prefs.Record{Time: "06:15", Category: prefs.DefaultCategory}) {
		t.Errorf("SetTime() = %v", rec)
	}
}

func TestSaveRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rec     prefs.Record
		wantErr error
	}{
		"bad time":     {rec: prefs.Record{Time: "9:00", Category: "life"}, wantErr: prefs.ErrInvalidFormat},
		"bad category": {rec: prefs.Record{Time: "09:00", Category: "poetry"}, wantErr: prefs.ErrUnknownCategory},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, _ := newStore(t)
			err := store.Save(context.Background(), map[int64]prefs.Record{1: tc.rec})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t)

	const chats = 40
	var wg sync.WaitGroup
	for i := range chats {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			if _, err := store.SetTime(ctx, id, "10:30"); err != nil {
				t.Errorf("SetTime(%d) error = %v", id, err)
			}
		}(int64(i))
		go func(id int64) {
			defer wg.Done()
			if _, err := store.SetCategory(ctx, id, "love"); err != nil {
				t.Errorf("SetCategory(%d) error = %v", id, err)
			}
		}(int64(i))
	}
	wg.Wait()

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != chats {
		t.Fatalf("records = %d, want %d", len(records), chats)
	}
	for id, rec := range records {
		if rec != (prefs.Record{Time: "10:30", Category: "love"}) {
			t.Errorf("chat %d = %v, lost update", id, rec)
		}
	}
}
