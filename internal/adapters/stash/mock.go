package stash

import (
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Mock is an in-memory media server speaking just enough of the wire
// protocol for tests and the seed tool: findScenes with a q term and
// sceneUpdate. Scene-filter criteria are accepted and ignored.
type Mock struct {
	mu     sync.Mutex
	scenes []scene.Scene
}

// NewMock creates a mock library.
func NewMock(scenes ...scene.Scene) *Mock {
	m := &Mock{}
	m.SetScenes(scenes)
	return m
}

// SetScenes replaces the library.
func (m *Mock) SetScenes(scenes []scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes = make([]scene.Scene, len(scenes))
	copy(m.scenes, scenes)
}

// Scenes returns a snapshot of the library.
func (m *Mock) Scenes() []scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]scene.Scene, len(m.scenes))
	copy(out, m.scenes)
	return out
}

// Rating returns a scene's stored rating.
func (m *Mock) Rating(id string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.scenes {
		if s.ID == id {
			return s.RatingValue()
		}
	}
	return 0, false
}

// Handler serves the GraphQL endpoint.
func (m *Mock) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", m.serve)
	return mux
}

type mockRequest struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
}

func (m *Mock) serve(w http.ResponseWriter, r *http.Request) {
	var req mockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGQLError(w, "malformed request: "+err.Error())
		return
	}

	switch {
	case strings.Contains(req.Query, "findScenes"):
		m.findScenes(w, req.Variables)
	case strings.Contains(req.Query, "sceneUpdate"):
		m.sceneUpdate(w, req.Variables)
	default:
		writeGQLError(w, "unsupported query")
	}
}

func (m *Mock) findScenes(w http.ResponseWriter, vars json.RawMessage) {
	var v struct {
		Filter struct {
			Q       string `json:"q"`
			PerPage *int   `json:"per_page"`
			Sort    string `json:"sort"`
		} `json:"filter"`
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &v); err != nil {
			writeGQLError(w, "malformed variables: "+err.Error())
			return
		}
	}

	m.mu.Lock()
	var matched []scene.Scene
	for _, s := range m.scenes {
		if matchQuery(s, v.Filter.Q) {
			matched = append(matched, s)
		}
	}
	m.mu.Unlock()

	if v.Filter.Sort == SortRating {
		scene.SortByRating(matched)
	}

	count := len(matched)
	if v.Filter.PerPage != nil && *v.Filter.PerPage >= 0 && *v.Filter.PerPage < count {
		matched = matched[:*v.Filter.PerPage]
	}

	dtos := make([]sceneDTO, 0, len(matched))
	for _, s := range matched {
		dtos = append(dtos, toDTO(s))
	}
	writeGQLData(w, map[string]any{
		"findScenes": map[string]any{"count": count, "scenes": dtos},
	})
}

func (m *Mock) sceneUpdate(w http.ResponseWriter, vars json.RawMessage) {
	var v struct {
		Input struct {
			ID        string `json:"id"`
			Rating100 *int   `json:"rating100"`
		} `json:"input"`
	}
	if err := json.Unmarshal(vars, &v); err != nil {
		writeGQLError(w, "malformed variables: "+err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.scenes {
		if s.ID != v.Input.ID {
			continue
		}
		if v.Input.Rating100 != nil {
			m.scenes[i] = s.WithRating(*v.Input.Rating100)
		}
		writeGQLData(w, map[string]any{"sceneUpdate": toDTO(m.scenes[i])})
		return
	}
	writeGQLError(w, "scene not found: "+v.Input.ID)
}

func matchQuery(s scene.Scene, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(s.Title), q) ||
		strings.Contains(strings.ToLower(s.Studio), q)
}

func toDTO(s scene.Scene) sceneDTO {
	d := sceneDTO{
		ID:        s.ID,
		Title:     s.Title,
		PlayCount: s.PlayCount,
		Paths:     pathsDTO{Screenshot: s.ScreenshotURL},
	}
	if v, ok := s.RatingValue(); ok {
		d.Rating100 = &v
	}
	if s.Studio != "" {
		d.Studio = &studioDTO{Name: s.Studio}
	}
	for _, p := range s.Performers {
		d.Performers = append(d.Performers, performerDTO{Name: p})
	}
	if s.DurationSec > 0 {
		d.Files = []fileDTO{{Duration: s.DurationSec}}
	}
	return d
}

func writeGQLData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeGQLError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": msg}},
	})
}
