package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/fila/internal/adapters/crm"
	"github.com/okian/fila/internal/adapters/repository"
	"github.com/okian/fila/internal/dispatch"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSource serves scripted pending cases per category.
type fakeSource struct {
	pending map[category.ID][]crm.PendingCase
	fail    map[category.ID]bool
}

func (f *fakeSource) ListPending(_ context.Context, cat category.ID) ([]crm.PendingCase, error) {
	if f.fail[cat] {
		return nil, crm.ErrUnavailable
	}
	return f.pending[cat], nil
}

func (f *fakeSource) PendingTotal(ctx context.Context) int {
	total := 0
	for cat := range f.pending {
		if !f.fail[cat] {
			total += len(f.pending[cat])
		}
	}
	return total
}

func newStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func onlineWorker(ctx context.Context, s *repository.SQLiteStore, name string, cats ...category.ID) int64 {
	w, err := s.CreateWorker(ctx, repository.Profile{Name: name, Secret: "x", Permitted: cats})
	So(err, ShouldBeNil)
	So(s.SetOnline(ctx, w.ID, true), ShouldBeNil)
	return w.ID
}

func TestSyncOnce(t *testing.T) {
	Convey("Given pending cases and two eligible workers", t, func() {
		ctx := context.Background()
		store := newStore(t)
		idA := onlineWorker(ctx, store, "Ana", category.SaleAllotment)
		idB := onlineWorker(ctx, store, "Beto", category.SaleAllotment)

		source := &fakeSource{pending: map[category.ID][]crm.PendingCase{
			category.SaleAllotment: {
				{ID: "r-1", Client: "C1"},
				{ID: "r-2", Client: "C2"},
			},
		}}
		d := dispatch.New(store, source)

		Convey("When running one cycle", func() {
			d.SyncOnce(ctx)

			Convey("Then cases are dealt fairly, one to each worker", func() {
				deskA, err := store.OpenAssignments(ctx, idA)
				So(err, ShouldBeNil)
				deskB, err := store.OpenAssignments(ctx, idB)
				So(err, ShouldBeNil)
				So(len(deskA), ShouldEqual, 1)
				So(len(deskB), ShouldEqual, 1)
			})

			Convey("And daily totals moved with the assignments", func() {
				a, _ := store.GetWorker(ctx, idA)
				b, _ := store.GetWorker(ctx, idB)
				So(a.CompletedToday, ShouldEqual, 1)
				So(b.CompletedToday, ShouldEqual, 1)
				So(a.LastAssignedAt, ShouldNotBeNil)
			})

			Convey("And a repeat cycle assigns nothing new", func() {
				d.SyncOnce(ctx)
				all, err := store.AllOpenAssignments(ctx)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 2)
			})
		})
	})
}

// faultyStore fails assignment lookups while fail is set.
type faultyStore struct {
	repository.Store
	fail bool
}

func (f *faultyStore) HasAssignment(ctx context.Context, caseID string) (bool, error) {
	if f.fail {
		return false, errors.New("store offline")
	}
	return f.Store.HasAssignment(ctx, caseID)
}

func TestSyncSurvivesLookupFault(t *testing.T) {
	Convey("Given a store whose assignment lookup is failing", t, func() {
		ctx := context.Background()
		store := newStore(t)
		id := onlineWorker(ctx, store, "Ana", category.SaleAllotment)
		faulty := &faultyStore{Store: store, fail: true}

		source := &fakeSource{pending: map[category.ID][]crm.PendingCase{
			category.SaleAllotment: {{ID: "r-1", Client: "C1"}},
		}}
		d := dispatch.New(faulty, source)

		Convey("When running a cycle during the fault", func() {
			d.SyncOnce(ctx)

			Convey("Then nothing is assigned", func() {
				desk, err := store.OpenAssignments(ctx, id)
				So(err, ShouldBeNil)
				So(desk, ShouldBeEmpty)
			})

			Convey("And the case is dealt once the store recovers", func() {
				faulty.fail = false
				d.SyncOnce(ctx)
				ok, err := store.HasAssignment(ctx, "r-1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestSyncSkipsIneligible(t *testing.T) {
	Convey("Given a pending case nobody may handle", t, func() {
		ctx := context.Background()
		store := newStore(t)
		onlineWorker(ctx, store, "Ana", category.Signed) // wrong category

		source := &fakeSource{pending: map[category.ID][]crm.PendingCase{
			category.SaleCaixa: {{ID: "r-9", Client: "C9"}},
		}}
		d := dispatch.New(store, source)

		Convey("When running one cycle", func() {
			d.SyncOnce(ctx)

			Convey("Then the case stays unassigned without error", func() {
				all, err := store.AllOpenAssignments(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldBeEmpty)

				_, lastErr := d.LastSync()
				So(lastErr, ShouldBeNil)
			})
		})
	})
}

func TestSyncPrunesVanishedCases(t *testing.T) {
	Convey("Given an assignment whose case left the upstream queue", t, func() {
		ctx := context.Background()
		store := newStore(t)
		onlineWorker(ctx, store, "Ana", category.SaleAllotment)

		source := &fakeSource{pending: map[category.ID][]crm.PendingCase{
			category.SaleAllotment: {{ID: "r-1"}, {ID: "r-2"}},
		}}
		d := dispatch.New(store, source)
		d.SyncOnce(ctx)

		source.pending[category.SaleAllotment] = []crm.PendingCase{{ID: "r-2"}}

		Convey("When the next cycle runs", func() {
			d.SyncOnce(ctx)

			Convey("Then the vanished case is pruned", func() {
				ok, err := store.HasAssignment(ctx, "r-1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)

				ok, err = store.HasAssignment(ctx, "r-2")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When one category fetch fails", func() {
			source.fail = map[category.ID]bool{category.SaleCaixa: true}
			source.pending[category.SaleAllotment] = nil

			d.SyncOnce(ctx)

			Convey("Then nothing is pruned from the partial view", func() {
				ok, err := store.HasAssignment(ctx, "r-2")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				_, lastErr := d.LastSync()
				So(errors.Is(lastErr, crm.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestRedistributeAll(t *testing.T) {
	Convey("Given dealt cases and a roster change", t, func() {
		ctx := context.Background()
		store := newStore(t)
		idA := onlineWorker(ctx, store, "Ana", category.SaleAllotment)

		source := &fakeSource{pending: map[category.ID][]crm.PendingCase{
			category.SaleAllotment: {{ID: "r-1"}, {ID: "r-2"}},
		}}
		d := dispatch.New(store, source)
		d.SyncOnce(ctx)

		desk, _ := store.OpenAssignments(ctx, idA)
		So(len(desk), ShouldEqual, 2)

		// A second analyst comes online; redistribution should spread
		// the load.
		idB := onlineWorker(ctx, store, "Beto", category.SaleAllotment)

		Convey("When redistributing", func() {
			So(d.RedistributeAll(ctx), ShouldBeNil)

			Convey("Then every pending case is re-dealt", func() {
				all, err := store.AllOpenAssignments(ctx)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 2)

				deskB, err := store.OpenAssignments(ctx, idB)
				So(err, ShouldBeNil)
				So(len(deskB), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestRunHonorsContext(t *testing.T) {
	Convey("Given a running dispatcher", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		store := newStore(t)
		source := &fakeSource{}
		d := dispatch.New(store, source, dispatch.WithInterval(10*time.Millisecond))

		done := make(chan struct{})
		go func() {
			d.Run(ctx)
			close(done)
		}()

		Convey("When the context is canceled", func() {
			time.Sleep(30 * time.Millisecond)
			cancel()

			Convey("Then the loop stops", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("dispatcher did not stop")
				}
			})
		})
	})
}
