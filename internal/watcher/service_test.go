package watcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shopwatch/internal/catalog"
	"shopwatch/internal/discord"
	"shopwatch/internal/snapshot"
	logx "shopwatch/pkg/logx"
)

type fakeFetcher struct {
	sections []catalog.RawSection
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]catalog.RawSection, error) {
	return f.sections, f.err
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []discord.Embed
	delay time.Duration
}

func (d *fakeDispatcher) Send(ctx context.Context, e discord.Embed) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	d.sent = append(d.sent, e)
	d.mu.Unlock()
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// countingStore tracks whether Save was invoked at all.
type countingStore struct {
	snapshot.Store
	mu    sync.Mutex
	saves int
}

func (c *countingStore) Save(ctx context.Context, snap catalog.Snapshot) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.Store.Save(ctx, snap)
}

func fileStore(t *testing.T, path string) *countingStore {
	t.Helper()
	st, err := snapshot.Open(snapshot.Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("snapshot.Open: %v", err)
	}
	return &countingStore{Store: st}
}

func featuredSection() catalog.RawSection {
	return catalog.RawSection{
		SectionID:   "Featured1",
		DisplayName: "Featured",
		Category:    "Featured",
		Metadata: catalog.Metadata{
			Background:  catalog.Background{CustomTexture: "https://cdn.example/bg.png"},
			OfferGroups: []catalog.OfferGroup{{DisplayType: "billboard"}, {DisplayType: "billboard"}, {DisplayType: "tile"}},
			StackRanks: []catalog.StackRank{
				{Context: "A", StartDate: "2026-08-30T00:00:00Z"},
				{Context: "B"},
			},
		},
	}
}

func newService(f Fetcher, st Store, d Dispatcher) *Service {
	return New(ParsedSpec{Kind: SpecInterval, Every: time.Minute}, f, st, d, logx.Nop())
}

// Scenario: empty snapshot, one fetched section. Exactly one notification
// with the contracted field order, and the snapshot file holds the section.
func TestCycleNewSectionNotifiesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)
	disp := &fakeDispatcher{}
	svc := newService(&fakeFetcher{sections: []catalog.RawSection{featuredSection()}}, st, disp)

	svc.RunCycle(context.Background())

	if disp.count() != 1 {
		t.Fatalf("dispatched %d notifications, want 1", disp.count())
	}
	wantOrder := []string{"**Display Name**", "**Section ID**", "**Category**", "**Background**", "**Group Count**", "**Billboard**", "**Context(s)**", "**Possible Release Dates**"}
	got := disp.sent[0].Fields
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d fields, want %d", len(got), len(wantOrder))
	}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Fatalf("field[%d] = %q, want %q", i, got[i].Name, name)
		}
	}

	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d sections, want 1", len(snap))
	}
	if _, ok := snap["Featured1"]; !ok {
		t.Fatal("snapshot missing Featured1")
	}
}

// Scenario: the only difference is release dates. No notification, but the
// snapshot is rewritten because the full-mapping comparison includes dates.
func TestCycleDateOnlyChangeSilentlyPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)
	ctx := context.Background()

	old := catalog.Normalize(featuredSection())
	old.ReleaseDates = []string{"2026-01-01T00:00:00Z"}
	if err := st.Save(ctx, catalog.Snapshot{"Featured1": old}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st.saves = 0

	disp := &fakeDispatcher{}
	svc := newService(&fakeFetcher{sections: []catalog.RawSection{featuredSection()}}, st, disp)
	svc.RunCycle(ctx)

	if disp.count() != 0 {
		t.Fatalf("dispatched %d notifications, want 0", disp.count())
	}
	if st.saves != 1 {
		t.Fatalf("saves = %d, want 1 (dates changed in storage)", st.saves)
	}
}

// Scenario: nothing changed at all. No notification, no write.
func TestCycleIdenticalLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)
	ctx := context.Background()

	if err := st.Save(ctx, catalog.Snapshot{"Featured1": catalog.Normalize(featuredSection())}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st.saves = 0

	disp := &fakeDispatcher{}
	svc := newService(&fakeFetcher{sections: []catalog.RawSection{featuredSection()}}, st, disp)
	svc.RunCycle(ctx)

	if disp.count() != 0 {
		t.Fatalf("dispatched %d notifications, want 0", disp.count())
	}
	if st.saves != 0 {
		t.Fatalf("saves = %d, want 0", st.saves)
	}
}

// Scenario: the catalog endpoint returns HTTP 500. The cycle aborts without
// notifications and without touching the snapshot.
func TestCycleFetchErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)
	disp := &fakeDispatcher{}
	client := catalog.NewClient(srv.URL, time.Second, logx.Nop())
	svc := newService(client, st, disp)

	svc.RunCycle(context.Background())

	if disp.count() != 0 {
		t.Fatalf("dispatched %d notifications, want 0", disp.count())
	}
	if st.saves != 0 {
		t.Fatalf("saves = %d, want 0", st.saves)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("snapshot file must not be created on an aborted cycle")
	}
}

// Scenario: the snapshot file holds invalid JSON. Load degrades to empty,
// so every fetched section counts as new.
func TestCycleCorruptSnapshotTreatsAllAsNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st := fileStore(t, path)

	second := featuredSection()
	second.SectionID = "Daily1"
	second.DisplayName = "Daily"
	second.Category = ""

	disp := &fakeDispatcher{}
	svc := newService(&fakeFetcher{sections: []catalog.RawSection{featuredSection(), second}}, st, disp)
	svc.RunCycle(context.Background())

	if disp.count() != 2 {
		t.Fatalf("dispatched %d notifications, want one per section", disp.count())
	}
	if st.saves != 1 {
		t.Fatalf("saves = %d, want 1", st.saves)
	}
}

// Dispatches run in parallel but the cycle must not persist before every
// one of them has finished.
func TestCycleWaitsForAllDispatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)

	second := featuredSection()
	second.SectionID = "Daily1"

	disp := &fakeDispatcher{delay: 50 * time.Millisecond}
	svc := newService(&fakeFetcher{sections: []catalog.RawSection{featuredSection(), second}}, st, disp)

	start := time.Now()
	svc.RunCycle(context.Background())
	took := time.Since(start)

	if disp.count() != 2 {
		t.Fatalf("dispatched %d notifications, want 2", disp.count())
	}
	// Parallel: well under the 100ms a sequential run would need, but at
	// least one delay long since the cycle awaits completion.
	if took < 50*time.Millisecond {
		t.Fatalf("cycle returned in %v, before dispatches completed", took)
	}
	if st.saves != 1 {
		t.Fatalf("saves = %d, want 1", st.saves)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := fileStore(t, path)
	disp := &fakeDispatcher{}
	svc := New(ParsedSpec{Kind: SpecInterval, Every: 20 * time.Millisecond},
		&fakeFetcher{sections: nil}, st, disp, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
