package presenter

import (
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/soocke/buff-scanner-go/config"
	"github.com/soocke/buff-scanner-go/domain/scan"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type surfaceOp struct {
	op    string
	name  string
	index int
}

type fakeSurface struct {
	ops   []surfaceOp
	alive bool
}

func (s *fakeSurface) Upsert(name string, index int, _ []byte) {
	s.ops = append(s.ops, surfaceOp{"upsert", name, index})
}

func (s *fakeSurface) Remove(name string) {
	s.ops = append(s.ops, surfaceOp{"remove", name, -1})
}

func (s *fakeSurface) Alive() bool { return s.alive }

func (s *fakeSurface) count(op, name string) int {
	n := 0
	for _, o := range s.ops {
		if o.op == op && o.name == name {
			n++
		}
	}
	return n
}

func grayTile() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	return img
}

func testFixture(t *testing.T, refreshable map[string]bool) (*scan.Catalog, *scan.Store, *fakeSurface, *OverlayPresenter) {
	t.Helper()
	decls := []config.BuffDecl{
		{Name: "Shield", File: "shield.png", Refreshable: refreshable["Shield"]},
		{Name: "Haste", File: "haste.png", Refreshable: refreshable["Haste"]},
	}
	catalog := scan.LoadCatalog(decls, "", func(string) (image.Image, error) { return grayTile(), nil }, discardLogger())
	store := scan.NewStore(catalog)
	surface := &fakeSurface{alive: true}
	p := NewOverlayPresenter(catalog, store, surface, discardLogger())
	return catalog, store, surface, p
}

func activeOutcome() scan.Outcome {
	return scan.Outcome{Active: true, Score: 0.99, Crop: image.NewRGBA(image.Rect(0, 0, 8, 8))}
}

func TestReconcile_UpsertsAtCatalogSlot(t *testing.T) {
	_, store, surface, p := testFixture(t, nil)
	gen := store.Generation()
	store.Publish(gen, time.Now(), map[string]scan.Outcome{
		"Shield": activeOutcome(),
		"Haste":  activeOutcome(),
	})
	if !p.Reconcile() {
		t.Fatal("reconcile reported stopped surface")
	}
	want := map[string]int{"Shield": 0, "Haste": 1}
	for _, o := range surface.ops {
		if o.op != "upsert" {
			t.Fatalf("unexpected op %+v", o)
		}
		if want[o.name] != o.index {
			t.Errorf("%s placed at slot %d, want %d", o.name, o.index, want[o.name])
		}
	}
	if len(surface.ops) != 2 {
		t.Fatalf("got %d ops, want 2", len(surface.ops))
	}
}

func TestReconcile_ActiveCropReplacedEveryCycle(t *testing.T) {
	_, store, surface, p := testFixture(t, map[string]bool{"Haste": true})
	gen := store.Generation()
	t0 := time.Now()

	// The refreshable flag is carried data, not behavior: both templates
	// get the latest matched crop pushed on every cycle while active.
	for i := 0; i < 2; i++ {
		store.Publish(gen, t0.Add(time.Duration(i)*50*time.Millisecond), map[string]scan.Outcome{
			"Shield": activeOutcome(),
			"Haste":  activeOutcome(),
		})
		p.Reconcile()
	}
	if got := surface.count("upsert", "Shield"); got != 2 {
		t.Fatalf("still-active Shield pushed %d upserts across 2 cycles, want 2", got)
	}
	if got := surface.count("upsert", "Haste"); got != 2 {
		t.Fatalf("still-active Haste pushed %d upserts across 2 cycles, want 2", got)
	}

	store.Publish(gen, t0.Add(100*time.Millisecond), nil)
	p.Reconcile()
	if got := surface.count("remove", "Shield"); got != 1 {
		t.Fatalf("deactivation pushed %d removes, want 1", got)
	}

	store.Publish(gen, t0.Add(150*time.Millisecond), map[string]scan.Outcome{"Shield": activeOutcome()})
	p.Reconcile()
	if got := surface.count("upsert", "Shield"); got != 3 {
		t.Fatalf("reactivation pushed %d total upserts, want 3", got)
	}
}

func TestReconcile_RemoveOnceThenQuiet(t *testing.T) {
	_, store, surface, p := testFixture(t, nil)
	gen := store.Generation()
	store.Publish(gen, time.Now(), map[string]scan.Outcome{"Shield": activeOutcome()})
	p.Reconcile()
	store.Publish(gen, time.Now(), nil)
	p.Reconcile()
	p.Reconcile()
	if got := surface.count("remove", "Shield"); got != 1 {
		t.Fatalf("got %d removes, want 1", got)
	}
}

func TestReconcile_StopsWhenSurfaceGone(t *testing.T) {
	_, _, surface, p := testFixture(t, nil)
	surface.alive = false
	if p.Reconcile() {
		t.Fatal("reconcile should report stopped")
	}
	surface.alive = true
	if p.Reconcile() {
		t.Fatal("presenter should stay stopped after surface loss")
	}
}

type fakeStatus struct{ last string }

func (s *fakeStatus) SetState(text string) { s.last = text }

func TestLoop_DrainsCommandsAndReschedules(t *testing.T) {
	_, store, surface, p := testFixture(t, nil)
	_ = store

	commands := make(chan func(), 4)
	ran := 0
	commands <- func() { ran++ }
	commands <- func() { ran++ }

	status := &fakeStatus{}
	scheduled := 0
	loop := NewLoop(commands, p, status, func() string { return "Running" }, func(func()) { scheduled++ }, discardLogger())

	loop.Tick()
	if ran != 2 {
		t.Fatalf("drained %d commands, want 2", ran)
	}
	if status.last != "Running" {
		t.Fatalf("status = %q, want Running", status.last)
	}
	if scheduled != 1 {
		t.Fatalf("scheduled %d times, want 1", scheduled)
	}

	surface.alive = false
	loop.Tick()
	if scheduled != 1 {
		t.Fatal("loop rescheduled after surface loss")
	}
}
