// Package stash talks to the media server's GraphQL endpoint. The
// server owns every rating; this package only reads scene sets and
// writes single ratings back.
package stash

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

const (
	// SortRating orders results by rating descending.
	SortRating = "rating100"
	// AllScenes asks the server for every match in one page.
	AllScenes = -1

	opFind   = "find_scenes"
	opUpdate = "scene_update"
)

// Gateway is the media-server surface the rest of the service consumes.
type Gateway interface {
	Find(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, int, error)
	Count(ctx context.Context, f scene.Filter) (int, error)
	List(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, error)
	SetRating(ctx context.Context, id string, value int) (scene.Scene, error)
}

var _ Gateway = (*Client)(nil)

const findScenesQuery = `query FindScenes($filter: FindFilterType, $scene_filter: SceneFilterType) {
  findScenes(filter: $filter, scene_filter: $scene_filter) {
    count
    scenes {
      id
      title
      rating100
      play_count
      studio { name }
      performers { name }
      files { duration }
      paths { screenshot }
    }
  }
}`

const sceneUpdateMutation = `mutation SceneUpdate($input: SceneUpdateInput!) {
  sceneUpdate(input: $input) {
    id
    title
    rating100
    play_count
    studio { name }
    performers { name }
    files { duration }
    paths { screenshot }
  }
}`

// Client is the HTTP GraphQL client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for the media server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Find runs one findScenes call, returning the matched scenes and the
// server-side total count.
func (c *Client) Find(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, int, error) {
	start := time.Now()

	vars := map[string]any{
		"filter": buildFindFilter(f.Query, sort, limit),
	}
	if sf := buildSceneFilter(f.Criteria); len(sf) > 0 {
		vars["scene_filter"] = sf
	}

	var out struct {
		FindScenes struct {
			Count  int        `json:"count"`
			Scenes []sceneDTO `json:"scenes"`
		} `json:"findScenes"`
	}
	if err := c.query(ctx, findScenesQuery, vars, &out); err != nil {
		metrics.RecordGatewayError(opFind)
		return nil, 0, fmt.Errorf("find scenes: %w", err)
	}
	metrics.RecordGatewayCall(opFind)
	metrics.RecordGatewayLatency(opFind, float64(time.Since(start).Milliseconds()))

	scenes := make([]scene.Scene, 0, len(out.FindScenes.Scenes))
	for _, d := range out.FindScenes.Scenes {
		scenes = append(scenes, d.toScene())
	}
	return scenes, out.FindScenes.Count, nil
}

// Count returns how many scenes match the filter.
func (c *Client) Count(ctx context.Context, f scene.Filter) (int, error) {
	_, count, err := c.Find(ctx, f, "", 0)
	return count, err
}

// List returns the scenes matching the filter.
func (c *Client) List(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, error) {
	items, _, err := c.Find(ctx, f, sort, limit)
	return items, err
}

// SetRating writes a rating and returns the server's updated scene.
func (c *Client) SetRating(ctx context.Context, id string, value int) (scene.Scene, error) {
	start := time.Now()

	vars := map[string]any{
		"input": map[string]any{"id": id, "rating100": value},
	}

	var out struct {
		SceneUpdate *sceneDTO `json:"sceneUpdate"`
	}
	if err := c.query(ctx, sceneUpdateMutation, vars, &out); err != nil {
		metrics.RecordGatewayError(opUpdate)
		return scene.Scene{}, fmt.Errorf("set rating: %w", err)
	}
	if out.SceneUpdate == nil {
		metrics.RecordGatewayError(opUpdate)
		return scene.Scene{}, fmt.Errorf("set rating %s: %w", id, ErrNoScene)
	}
	metrics.RecordGatewayCall(opUpdate)
	metrics.RecordGatewayLatency(opUpdate, float64(time.Since(start).Milliseconds()))

	return out.SceneUpdate.toScene(), nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("ApiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope gqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("media server: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func buildFindFilter(query, sort string, limit int) map[string]any {
	f := map[string]any{
		"page":      1,
		"per_page":  limit,
		"direction": "DESC",
	}
	if query != "" {
		f["q"] = query
	}
	if sort != "" {
		f["sort"] = sort
	}
	return f
}

// buildSceneFilter maps criteria onto the server's scene_filter object:
// one clause per field, value plus optional modifier.
func buildSceneFilter(criteria []scene.Criterion) map[string]any {
	if len(criteria) == 0 {
		return nil
	}

	sf := make(map[string]any, len(criteria))
	for _, c := range criteria {
		clause := map[string]any{"value": c.Value}
		if c.Modifier != "" {
			clause["modifier"] = c.Modifier
		}
		sf[c.Field] = clause
	}
	return sf
}

type sceneDTO struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Rating100  *int           `json:"rating100"`
	PlayCount  int            `json:"play_count"`
	Studio     *studioDTO     `json:"studio"`
	Performers []performerDTO `json:"performers"`
	Files      []fileDTO      `json:"files"`
	Paths      pathsDTO       `json:"paths"`
}

type studioDTO struct {
	Name string `json:"name"`
}

type performerDTO struct {
	Name string `json:"name"`
}

type fileDTO struct {
	Duration float64 `json:"duration"`
}

type pathsDTO struct {
	Screenshot string `json:"screenshot"`
}

func (d sceneDTO) toScene() scene.Scene {
	s := scene.Scene{
		ID:            d.ID,
		Title:         d.Title,
		PlayCount:     d.PlayCount,
		ScreenshotURL: d.Paths.Screenshot,
	}
	if d.Rating100 != nil {
		v := *d.Rating100
		s.Rating = &v
	}
	if d.Studio != nil {
		s.Studio = d.Studio.Name
	}
	for _, p := range d.Performers {
		s.Performers = append(s.Performers, p.Name)
	}
	if len(d.Files) > 0 {
		s.DurationSec = d.Files[0].Duration
	}
	return s
}
