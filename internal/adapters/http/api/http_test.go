package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/fila/internal/adapters/http/api"
	"github.com/okian/fila/internal/adapters/repository"
	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stub implements api.Dependencies and api.StatsProvider with
// overridable behavior per test.
type stub struct {
	authenticate func(id int64, secret string) (service.Session, error)
	setAvail     func(id int64, online bool) error
	team         func() ([]model.Worker, error)
	desk         func(id int64) ([]model.Assignment, error)
	positions    func(id int64) (map[category.ID]int, error)
	metrics      func(id int64) (service.Metrics, error)
	complete     func(caseID, outcome string) (model.HistoryEntry, error)
	overview     func() (service.Overview, error)
	create       func(p repository.Profile) (model.Worker, error)
	update       func(id int64, p repository.Patch) (model.Worker, error)
	remove       func(id int64) error
	redistribute func(requestID string) error
}

func (s *stub) Authenticate(_ context.Context, id int64, secret string) (service.Session, error) {
	if s.authenticate == nil {
		return service.Session{}, repository.ErrNotFound
	}
	return s.authenticate(id, secret)
}

func (s *stub) SetAvailability(_ context.Context, id int64, online bool) error {
	if s.setAvail == nil {
		return nil
	}
	return s.setAvail(id, online)
}

func (s *stub) Team(context.Context) ([]model.Worker, error) {
	if s.team == nil {
		return nil, nil
	}
	return s.team()
}

func (s *stub) Desk(_ context.Context, id int64) ([]model.Assignment, error) {
	if s.desk == nil {
		return nil, repository.ErrNotFound
	}
	return s.desk(id)
}

func (s *stub) QueuePositions(_ context.Context, id int64) (map[category.ID]int, error) {
	if s.positions == nil {
		return nil, repository.ErrNotFound
	}
	return s.positions(id)
}

func (s *stub) WorkerMetrics(_ context.Context, id int64) (service.Metrics, error) {
	if s.metrics == nil {
		return service.Metrics{}, repository.ErrNotFound
	}
	return s.metrics(id)
}

func (s *stub) Complete(_ context.Context, caseID, outcome string) (model.HistoryEntry, error) {
	if s.complete == nil {
		return model.HistoryEntry{}, repository.ErrNotFound
	}
	return s.complete(caseID, outcome)
}

func (s *stub) Overview(context.Context) (service.Overview, error) {
	if s.overview == nil {
		return service.Overview{}, nil
	}
	return s.overview()
}

func (s *stub) CreateAnalyst(_ context.Context, p repository.Profile) (model.Worker, error) {
	if s.create == nil {
		return model.Worker{}, repository.ErrNotFound
	}
	return s.create(p)
}

func (s *stub) UpdateAnalyst(_ context.Context, id int64, p repository.Patch) (model.Worker, error) {
	if s.update == nil {
		return model.Worker{}, repository.ErrNotFound
	}
	return s.update(id, p)
}

func (s *stub) DeleteAnalyst(_ context.Context, id int64) error {
	if s.remove == nil {
		return repository.ErrNotFound
	}
	return s.remove(id)
}

func (s *stub) Redistribute(_ context.Context, requestID string) error {
	if s.redistribute == nil {
		return nil
	}
	return s.redistribute(requestID)
}

func (s *stub) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *stub) *httptest.Server {
	srv := api.NewServer(deps, deps)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func sampleWorker() model.Worker {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return model.Worker{
		ID:             7,
		Name:           "Ana",
		Online:         true,
		Active:         true,
		Permitted:      []category.ID{category.SaleAllotment},
		CompletedToday: 2,
		LastAssignedAt: &at,
	}
}

func TestLogin(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stub{
			authenticate: func(id int64, secret string) (service.Session, error) {
				if secret != "s3cret" {
					return service.Session{}, repository.ErrUnauthorized
				}
				return service.Session{Token: "tok-1", Worker: sampleWorker()}, nil
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When logging in with valid credentials", func() {
			resp := postJSON(t, ts.URL+"/api/login", map[string]any{"id": 7, "password": "s3cret"})

			Convey("Then a session and the analyst view come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["token"], ShouldEqual, "tok-1")
				analyst := body["analyst"].(map[string]any)
				So(analyst["name"], ShouldEqual, "Ana")
				So(analyst["online"], ShouldEqual, true)
			})
		})

		Convey("When the secret is wrong", func() {
			resp := postJSON(t, ts.URL+"/api/login", map[string]any{"id": 7, "password": "nope"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(ts.URL+"/api/login", "application/json", bytes.NewReader([]byte("{")))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the id is missing", func() {
			resp := postJSON(t, ts.URL+"/api/login", map[string]any{"password": "s3cret"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(ts.URL + "/api/login")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestQueueStatus(t *testing.T) {
	Convey("Given the API server", t, func() {
		var gotOnline bool
		deps := &stub{
			setAvail: func(id int64, online bool) error {
				gotOnline = online
				return nil
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When toggling availability", func() {
			resp := postJSON(t, ts.URL+"/api/analyst/queue-status", map[string]any{"id": 7, "online": true})

			Convey("Then the change is acknowledged", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["online"], ShouldEqual, true)
				So(gotOnline, ShouldBeTrue)
			})
		})
	})
}

func TestAnalystsAndCategories(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stub{
			team: func() ([]model.Worker, error) {
				return []model.Worker{sampleWorker()}, nil
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When listing analysts", func() {
			resp, err := http.Get(ts.URL + "/api/analysts")
			So(err, ShouldBeNil)

			Convey("Then the roster view is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[[]map[string]any](t, resp)
				So(len(body), ShouldEqual, 1)
				So(body[0]["name"], ShouldEqual, "Ana")
				So(body[0]["completed_today"], ShouldEqual, 2)
				So(body[0]["last_assigned_at"], ShouldNotBeNil)
			})
		})

		Convey("When listing categories", func() {
			resp, err := http.Get(ts.URL + "/api/categories")
			So(err, ShouldBeNil)

			Convey("Then every known category comes with its presentation", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[[]map[string]any](t, resp)
				So(len(body), ShouldEqual, len(category.All()))

				labels := map[string]bool{}
				for _, c := range body {
					labels[c["label"].(string)] = true
					So(c["background_color"], ShouldNotBeEmpty)
				}
				So(labels["ANÁLISE VENDA CAIXA"], ShouldBeTrue)
			})
		})
	})
}

func TestDeskEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stub{
			desk: func(id int64) ([]model.Assignment, error) {
				if id != 7 {
					return nil, repository.ErrNotFound
				}
				return []model.Assignment{{
					CaseID:        "r-1",
					WorkerID:      7,
					CategoryID:    category.SaleAllotment,
					CategoryLabel: "Venda Loteamento",
					Client:        "Maria",
					AssignedAt:    time.Now().UTC(),
				}}, nil
			},
			positions: func(id int64) (map[category.ID]int, error) {
				if id != 7 {
					return nil, repository.ErrNotFound
				}
				return map[category.ID]int{category.SaleAllotment: 1}, nil
			},
			metrics: func(id int64) (service.Metrics, error) {
				if id != 7 {
					return service.Metrics{}, repository.ErrNotFound
				}
				return service.Metrics{Today: 2, Year: 40}, nil
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When reading a desk", func() {
			resp, err := http.Get(ts.URL + "/api/desk/7")
			So(err, ShouldBeNil)

			Convey("Then the open cases are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[[]map[string]any](t, resp)
				So(len(body), ShouldEqual, 1)
				So(body[0]["case_id"], ShouldEqual, "r-1")
				So(body[0]["category_label"], ShouldEqual, "Venda Loteamento")
			})
		})

		Convey("When the desk id is not numeric", func() {
			resp, err := http.Get(ts.URL + "/api/desk/abc")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the analyst is unknown", func() {
			resp, err := http.Get(ts.URL + "/api/desk/99")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When reading queue positions", func() {
			resp, err := http.Get(ts.URL + "/api/queue/7")
			So(err, ShouldBeNil)

			Convey("Then positions are keyed by category", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				positions := body["positions"].(map[string]any)
				So(positions["62"], ShouldEqual, 1)
			})
		})

		Convey("When reading analyst metrics", func() {
			resp, err := http.Get(ts.URL + "/api/metrics/7")
			So(err, ShouldBeNil)

			Convey("Then day and year counters are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["completed_today"], ShouldEqual, 2)
				So(body["completed_year"], ShouldEqual, 40)
			})
		})
	})
}

func TestComplete(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stub{
			complete: func(caseID, outcome string) (model.HistoryEntry, error) {
				switch caseID {
				case "r-1":
					return model.HistoryEntry{
						CaseID:     "r-1",
						WorkerID:   7,
						WorkerName: "Ana",
						Outcome:    outcome,
						ClosedAt:   time.Now().UTC(),
					}, nil
				case "r-dup":
					return model.HistoryEntry{}, service.ErrDuplicate
				default:
					return model.HistoryEntry{}, repository.ErrNotFound
				}
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When completing an open case", func() {
			resp := postJSON(t, ts.URL+"/api/complete", map[string]any{"case_id": "r-1"})

			Convey("Then the history entry uses the default outcome", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["case_id"], ShouldEqual, "r-1")
				So(body["outcome"], ShouldEqual, "done")
			})
		})

		Convey("When the case id is missing", func() {
			resp := postJSON(t, ts.URL+"/api/complete", map[string]any{"outcome": "done"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the outcome is not a known value", func() {
			resp := postJSON(t, ts.URL+"/api/complete", map[string]any{"case_id": "r-1", "outcome": "maybe"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the submission is a duplicate", func() {
			resp := postJSON(t, ts.URL+"/api/complete", map[string]any{"case_id": "r-dup"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When the case is not open", func() {
			resp := postJSON(t, ts.URL+"/api/complete", map[string]any{"case_id": "ghost"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestManagerEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		active := false
		deps := &stub{
			overview: func() (service.Overview, error) {
				return service.Overview{
					GeneratedAt:     time.Now().UTC(),
					Team:            []model.Worker{sampleWorker()},
					ExternalPending: 3,
					SnapshotState:   "idle",
				}, nil
			},
			create: func(p repository.Profile) (model.Worker, error) {
				return model.Worker{ID: 8, Name: p.Name, Active: true, Permitted: p.Permitted}, nil
			},
			update: func(id int64, p repository.Patch) (model.Worker, error) {
				if p.Active != nil {
					active = *p.Active
				}
				return model.Worker{ID: id, Name: "Ana", Active: active}, nil
			},
			remove: func(id int64) error {
				if id != 8 {
					return repository.ErrNotFound
				}
				return nil
			},
			redistribute: func(requestID string) error {
				if requestID == "dup" {
					return service.ErrDuplicate
				}
				return nil
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When reading the overview", func() {
			resp, err := http.Get(ts.URL + "/api/manager/overview")
			So(err, ShouldBeNil)

			Convey("Then the management view is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["external_pending"], ShouldEqual, 3)
				So(body["snapshot_state"], ShouldEqual, "idle")
				team := body["team"].([]any)
				So(len(team), ShouldEqual, 1)
			})
		})

		Convey("When creating an analyst", func() {
			resp := postJSON(t, ts.URL+"/api/manager/analysts", map[string]any{
				"name": "Beto", "password": "x", "categories": []int{62, 30},
			})

			Convey("Then 201 with the new analyst", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				body := decode[map[string]any](t, resp)
				So(body["id"], ShouldEqual, 8)
				So(body["name"], ShouldEqual, "Beto")
			})
		})

		Convey("When creating with an unknown category", func() {
			resp := postJSON(t, ts.URL+"/api/manager/analysts", map[string]any{
				"name": "Beto", "password": "x", "categories": []int{999},
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When creating without a name", func() {
			resp := postJSON(t, ts.URL+"/api/manager/analysts", map[string]any{"password": "x"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When patching an analyst", func() {
			raw, _ := json.Marshal(map[string]any{"active": true})
			req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/manager/analysts/8", bytes.NewReader(raw))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)

			Convey("Then the update is applied", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["active"], ShouldEqual, true)
				So(active, ShouldBeTrue)
			})
		})

		Convey("When deleting an analyst", func() {
			req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/manager/analysts/8", nil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
		})

		Convey("When deleting an unknown analyst", func() {
			req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/manager/analysts/99", nil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When redistributing", func() {
			resp := postJSON(t, ts.URL+"/api/manager/redistribute", map[string]any{"request_id": "req-1"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			Convey("And a duplicate request id is rejected", func() {
				dup := postJSON(t, ts.URL+"/api/manager/redistribute", map[string]any{"request_id": "dup"})
				defer dup.Body.Close()
				So(dup.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer(&stub{})
		defer ts.Close()

		Convey("When reading service stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)

			Convey("Then the provider's map is served as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](t, resp)
				So(body["started"], ShouldEqual, true)
				So(body, ShouldContainKey, "uptimeSeconds")
				So(body, ShouldContainKey, "serverTime")
			})
		})

		Convey("When scraping health metrics", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
