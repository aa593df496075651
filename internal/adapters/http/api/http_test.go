package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/adapters/http/api"
	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	logging "github.com/dtt-git/stash-battle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logging.Init()
	if err != nil {
		panic(err)
	}
}

// Mock implementations for testing.
type mockEngine struct {
	turn      api.Turn
	err       error
	sides     []scene.Side
	modes     []scene.Mode
	filters   []scene.Filter
	resets    int
	refreshes int
	session   match.State
	filter    scene.Filter
}

func (m *mockEngine) Next(ctx context.Context) (api.Turn, error) {
	return m.turn, m.err
}

func (m *mockEngine) Decide(ctx context.Context, winner scene.Side) (api.Turn, error) {
	m.sides = append(m.sides, winner)
	return m.turn, m.err
}

func (m *mockEngine) SwitchMode(ctx context.Context, mode scene.Mode) (api.Turn, error) {
	m.modes = append(m.modes, mode)
	return m.turn, m.err
}

func (m *mockEngine) SwitchFilter(ctx context.Context, f scene.Filter) (api.Turn, error) {
	m.filters = append(m.filters, f)
	return m.turn, m.err
}

func (m *mockEngine) Reset(ctx context.Context) (api.Turn, error) {
	m.resets++
	return m.turn, m.err
}

func (m *mockEngine) Refresh(ctx context.Context) (api.Turn, error) {
	m.refreshes++
	return m.turn, m.err
}

func (m *mockEngine) Session() match.State { return m.session }

func (m *mockEngine) Filter() scene.Filter { return m.filter }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func pairTurn() api.Turn {
	left := scene.Scene{ID: "a", Title: "Left"}.WithRating(60)
	right := scene.Scene{ID: "b", Title: "Right"}.WithRating(55)
	leftRank, rightRank := 1, 2
	return api.Turn{
		Left:      &left,
		Right:     &right,
		LeftRank:  &leftRank,
		RightRank: &rightRank,
		Status:    scene.StatusPair,
	}
}

func newMux(engine *mockEngine) *http.ServeMux {
	server := api.NewServer(engine, &mockStatsProvider{
		stats: map[string]interface{}{"started": true},
	})
	mux := http.NewServeMux()
	server.Register(mux)
	return mux
}

func postJSON(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func postForm(mux *http.ServeMux, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		engine := &mockEngine{turn: pairTurn()}
		mux := newMux(engine)

		Convey("When registering routes", func() {
			Convey("Then the next endpoint serves the current turn", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/next", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var turn api.Turn
				So(json.Unmarshal(w.Body.Bytes(), &turn), ShouldBeNil)
				So(turn.Status, ShouldEqual, scene.StatusPair)
				So(turn.Left.ID, ShouldEqual, "a")
				So(*turn.LeftRank, ShouldEqual, 1)
			})

			Convey("And the health endpoint reports ok", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})

			Convey("And the stats endpoint serves the snapshot", func() {
				req := httptest.NewRequest(http.MethodGet, "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"started":true`)
			})

			Convey("And the metrics endpoint is scrapeable", func() {
				req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And a decide sent as GET misses", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/decide", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And an unknown path misses", func() {
				req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestDecideEndpoint(t *testing.T) {
	Convey("Given a registered decide endpoint", t, func() {
		engine := &mockEngine{turn: pairTurn()}
		mux := newMux(engine)

		Convey("When the body names the left side", func() {
			w := postJSON(mux, "/api/v1/decide", `{"winner":"left"}`)

			Convey("Then the verdict reaches the engine and the next turn returns", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.sides, ShouldResemble, []scene.Side{scene.SideLeft})

				var turn api.Turn
				So(json.Unmarshal(w.Body.Bytes(), &turn), ShouldBeNil)
				So(turn.Status, ShouldEqual, scene.StatusPair)
			})
		})

		Convey("When the winner is neither side", func() {
			w := postJSON(mux, "/api/v1/decide", `{"winner":"middle"}`)

			Convey("Then the request is rejected before the engine", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "invalid_side")
				So(engine.sides, ShouldBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			w := postJSON(mux, "/api/v1/decide", `winner=left`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When no pair is on display", func() {
			engine.err = match.ErrNoPair
			w := postJSON(mux, "/api/v1/decide", `{"winner":"right"}`)

			Convey("Then the conflict surfaces as 409", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(w.Body.String(), ShouldContainSubstring, "no_pair")
			})
		})

		Convey("When the engine fails outright", func() {
			engine.err = context.DeadlineExceeded
			w := postJSON(mux, "/api/v1/decide", `{"winner":"left"}`)

			Convey("Then the failure surfaces as 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "internal_error")
			})
		})
	})
}

func TestModeEndpoint(t *testing.T) {
	Convey("Given a registered mode endpoint", t, func() {
		engine := &mockEngine{turn: pairTurn()}
		mux := newMux(engine)

		Convey("When the mode is valid in mixed case", func() {
			w := postJSON(mux, "/api/v1/mode", `{"mode":"Gauntlet"}`)

			Convey("Then the switch reaches the engine normalized", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.modes, ShouldResemble, []scene.Mode{scene.ModeGauntlet})
			})
		})

		Convey("When the mode is unknown", func() {
			w := postJSON(mux, "/api/v1/mode", `{"mode":"ladder"}`)

			Convey("Then the request is rejected before the engine", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "invalid_mode")
				So(engine.modes, ShouldBeEmpty)
			})
		})
	})
}

func TestFilterEndpoint(t *testing.T) {
	Convey("Given a registered filter endpoint", t, func() {
		engine := &mockEngine{turn: pairTurn()}
		mux := newMux(engine)

		Convey("When the form carries a query and a criterion", func() {
			form := url.Values{}
			form.Set("q", "beach")
			form.Add("criterion", `{"field":"studios","modifier":"INCLUDES","value":["3"]}`)
			w := postForm(mux, "/api/v1/filter", form)

			Convey("Then the parsed filter reaches the engine", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.filters, ShouldHaveLength, 1)
				So(engine.filters[0].Query, ShouldEqual, "beach")
				So(engine.filters[0].Criteria, ShouldHaveLength, 1)
				So(engine.filters[0].Criteria[0].Field, ShouldEqual, "studios")
			})
		})

		Convey("When one criterion is malformed", func() {
			form := url.Values{}
			form.Set("q", "beach")
			form.Add("criterion", `{not json`)
			w := postForm(mux, "/api/v1/filter", form)

			Convey("Then the rest of the filter still applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.filters, ShouldHaveLength, 1)
				So(engine.filters[0].Query, ShouldEqual, "beach")
				So(engine.filters[0].Criteria, ShouldBeEmpty)
			})
		})

		Convey("When the form is empty", func() {
			w := postForm(mux, "/api/v1/filter", url.Values{})

			Convey("Then the filter clears", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.filters, ShouldHaveLength, 1)
				So(engine.filters[0].IsZero(), ShouldBeTrue)
			})
		})
	})
}

func TestSessionEndpoint(t *testing.T) {
	Convey("Given a registered session endpoint", t, func() {
		engine := &mockEngine{
			session: match.State{Mode: scene.ModeGauntlet, WinStreak: 3, TotalCount: 42},
			filter:  scene.Filter{Query: "beach"},
		}
		mux := newMux(engine)

		Convey("When the snapshot is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it carries the session and the active filter", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var got struct {
					Session match.State  `json:"session"`
					Filter  scene.Filter `json:"filter"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Session.Mode, ShouldEqual, scene.ModeGauntlet)
				So(got.Session.WinStreak, ShouldEqual, 3)
				So(got.Session.TotalCount, ShouldEqual, 42)
				So(got.Filter.Query, ShouldEqual, "beach")
			})
		})
	})
}

func TestResetAndRefreshEndpoints(t *testing.T) {
	Convey("Given registered reset and refresh endpoints", t, func() {
		engine := &mockEngine{turn: pairTurn()}
		mux := newMux(engine)

		Convey("When reset is posted", func() {
			w := postJSON(mux, "/api/v1/reset", "")

			Convey("Then the session restarts and a pair returns", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.resets, ShouldEqual, 1)
			})
		})

		Convey("When refresh is posted", func() {
			w := postJSON(mux, "/api/v1/refresh", "")

			Convey("Then the library refetches", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.refreshes, ShouldEqual, 1)
			})
		})

		Convey("When reset is sent as GET", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reset", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it misses", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
