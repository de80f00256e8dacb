package sync

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
)

// countingStore tallies the writes a pull performs, so tests can pin how
// many pulls actually ran.
type countingStore struct {
	store.Store
	writes atomic.Int32
}

func (c *countingStore) CreateBook(ctx context.Context, book *domain.Book) error {
	c.writes.Add(1)
	return c.Store.CreateBook(ctx, book)
}

func (c *countingStore) UpdateBookContent(ctx context.Context, book *domain.Book) error {
	c.writes.Add(1)
	return c.Store.UpdateBookContent(ctx, book)
}

func (c *countingStore) UpdateSyncStatus(ctx context.Context, bookID, hash string, at time.Time) error {
	c.writes.Add(1)
	return c.Store.UpdateSyncStatus(ctx, bookID, hash, at)
}

func newTestWatcher(t *testing.T) (*Watcher, *Engine, *sqlite.Store) {
	t.Helper()
	engine, st := newTestEngine(t)

	w := NewWatcher(engine, 50*time.Millisecond, testLogger())
	w.poll = 10 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w, engine, st
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func writeBookFile(t *testing.T, engine *Engine, name string, doc *markdown.Document) string {
	t.Helper()
	path := filepath.Join(engine.Dir(), name)
	if err := engine.codec.Write(path, doc); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestWatcher_SyncsNewFile(t *testing.T) {
	w, engine, st := newTestWatcher(t)
	ctx := context.Background()

	writeBookFile(t, engine, "roadside-picnic.md", &markdown.Document{
		Frontmatter: markdown.Frontmatter{
			Title:  "Roadside Picnic",
			Author: "Arkady Strugatsky",
			ISBN13: "9781613743416",
		},
	})

	ok := waitFor(t, 3*time.Second, func() bool {
		books, err := st.ListBooks(ctx)
		return err == nil && len(books) == 1
	})
	if !ok {
		t.Fatal("file was never pulled into the catalog")
	}

	books, _ := st.ListBooks(ctx)
	if books[0].Title != "Roadside Picnic" {
		t.Errorf("title = %q", books[0].Title)
	}
	if !w.IsWatching() {
		t.Error("watcher stopped unexpectedly")
	}
}

func TestWatcher_CoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	ctx := context.Background()

	st, err := sqlite.Open(filepath.Join(dir, "catalog.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	counting := &countingStore{Store: st}
	engine := NewEngine(counting, markdown.NewCodec(logger), filepath.Join(dir, "books"), logger)

	w := NewWatcher(engine, 200*time.Millisecond, logger)
	w.poll = 10 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	doc := &markdown.Document{
		Frontmatter: markdown.Frontmatter{Title: "Hyperion", ISBN13: "9780553283686"},
	}
	for i := 0; i < 3; i++ {
		doc.Review = "draft " + string(rune('a'+i))
		writeBookFile(t, engine, "hyperion.md", doc)
		time.Sleep(10 * time.Millisecond)
	}

	// Only the final content survives; intermediate writes were folded
	// into a single pull.
	ok := waitFor(t, 3*time.Second, func() bool {
		books, err := st.ListBooks(ctx)
		return err == nil && len(books) == 1 && books[0].Review != nil &&
			books[0].Review.Text == "draft c"
	})
	if !ok {
		books, _ := st.ListBooks(ctx)
		t.Fatalf("final content never synced: %+v", books)
	}

	// Let the debounce worker drain, then check the write count. A single
	// coalesced pull of a new file issues exactly one store write.
	if !waitFor(t, time.Second, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.workerRunning && len(w.pending) == 0
	}) {
		t.Fatal("debounce worker did not drain")
	}
	if got := counting.writes.Load(); got != 1 {
		t.Errorf("store writes = %d, want 1 (rapid writes should coalesce into one pull)", got)
	}
}

func TestWatcher_WorkerExitsWhenDrained(t *testing.T) {
	w, engine, st := newTestWatcher(t)
	ctx := context.Background()

	writeBookFile(t, engine, "ubik.md", &markdown.Document{
		Frontmatter: markdown.Frontmatter{Title: "Ubik", ISBN13: "9780547572291"},
	})

	if !waitFor(t, 3*time.Second, func() bool {
		books, err := st.ListBooks(ctx)
		return err == nil && len(books) == 1
	}) {
		t.Fatal("file was never pulled")
	}

	if !waitFor(t, time.Second, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.workerRunning && len(w.pending) == 0
	}) {
		t.Error("debounce worker did not exit after draining")
	}
}

func TestWatcher_IgnoresTempFiles(t *testing.T) {
	_, engine, st := newTestWatcher(t)
	ctx := context.Background()

	tmp := filepath.Join(engine.Dir(), "in-flight.md.tmp")
	if err := os.WriteFile(tmp, []byte("partial write"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	books, err := st.ListBooks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 0 {
		t.Errorf("temp file was synced: %+v", books)
	}
}

func TestWatcher_IgnoresDeletes(t *testing.T) {
	_, engine, st := newTestWatcher(t)
	ctx := context.Background()

	path := writeBookFile(t, engine, "the-lathe-of-heaven.md", &markdown.Document{
		Frontmatter: markdown.Frontmatter{Title: "The Lathe of Heaven", ISBN13: "9781416556961"},
	})

	if !waitFor(t, 3*time.Second, func() bool {
		books, err := st.ListBooks(ctx)
		return err == nil && len(books) == 1
	}) {
		t.Fatal("file was never pulled")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	books, err := st.ListBooks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 1 {
		t.Errorf("delete removed the catalog record: %d books", len(books))
	}
}

func TestWatcher_StartStop(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := NewWatcher(engine, 0, testLogger())

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want default", w.debounce)
	}
	if w.IsWatching() {
		t.Error("watching before Start")
	}

	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.IsWatching() {
		t.Error("not watching after Start")
	}
	// Second Start is a no-op.
	if err := w.Start(); err != nil {
		t.Errorf("second start: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if w.IsWatching() {
		t.Error("still watching after Stop")
	}
	// Second Stop is a no-op.
	if err := w.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}

	// The watcher can be started again after a stop.
	if err := w.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !w.IsWatching() {
		t.Error("not watching after restart")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}

func TestWatcher_StartStopUnderContention(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := NewWatcher(engine, 0, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				w.Start()
				w.Stop()
			}
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the watcher must still be usable.
	if err := w.Start(); err != nil {
		t.Fatalf("start after contention: %v", err)
	}
	if !w.IsWatching() {
		t.Error("not watching after contended start/stop cycles")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop after contention: %v", err)
	}
	if w.IsWatching() {
		t.Error("still watching after final stop")
	}
}
