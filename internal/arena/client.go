package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/types"
	"github.com/okian/holotrumps/internal/domain/verdict"
)

// Sentinel kinds for client errors.
var (
	ErrRemote    = errors.New("server returned an error")
	ErrUnhealthy = errors.New("service unhealthy")
	ErrResponse  = errors.New("malformed response")
)

// RemoteError is a GraphQL error reported by the server.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

// Client talks to the game's GraphQL endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// do posts query and decodes the data member into out. The first GraphQL
// error, if any, is returned as a *RemoteError.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("%w: status %d: %w", ErrResponse, resp.StatusCode, err)
	}
	if len(gr.Errors) > 0 {
		return &RemoteError{Code: gr.Errors[0].Extensions.Code, Message: gr.Errors[0].Message}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrResponse, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrResponse, err)
	}
	return nil
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

const randomPairQuery = `query RandomPair($resource: ResourceType!) {
  getRandomPair(resource: $resource) {
    resourceType
    winningAttribute
    outcome
    entities {
      __typename
      ... on Person { id name mass height gender homeworld }
      ... on Starship { id name crew model manufacturer passengers }
    }
  }
}`

// wireEntity is the union of the Person and Starship selections.
type wireEntity struct {
	TypeName string `json:"__typename"`
	entity.Person
	Crew         int    `json:"crew"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	Passengers   string `json:"passengers"`
}

func (w wireEntity) toEntity() (entity.Entity, error) {
	switch w.TypeName {
	case entity.KindPeople.TypeName():
		return entity.FromPerson(w.Person), nil
	case entity.KindStarships.TypeName():
		return entity.FromStarship(entity.Starship{
			ID:           w.ID,
			Name:         w.Name,
			Crew:         w.Crew,
			Model:        w.Model,
			Manufacturer: w.Manufacturer,
			Passengers:   w.Passengers,
		}), nil
	default:
		return entity.Entity{}, fmt.Errorf("%w: unknown entity type %q", ErrResponse, w.TypeName)
	}
}

// RandomPair asks the server for a round of kind and returns the round as
// the server resolved it.
func (c *Client) RandomPair(ctx context.Context, kind entity.Kind) (verdict.Round, error) {
	var out struct {
		Round struct {
			ResourceType     entity.Kind     `json:"resourceType"`
			WinningAttribute string          `json:"winningAttribute"`
			Outcome          verdict.Outcome `json:"outcome"`
			Entities         []wireEntity    `json:"entities"`
		} `json:"getRandomPair"`
	}
	if err := c.do(ctx, randomPairQuery, map[string]any{"resource": kind.String()}, &out); err != nil {
		return verdict.Round{}, err
	}
	if len(out.Round.Entities) != 2 {
		return verdict.Round{}, fmt.Errorf("%w: round has %d entities", ErrResponse, len(out.Round.Entities))
	}

	round := verdict.Round{
		Kind:             out.Round.ResourceType,
		Outcome:          out.Round.Outcome,
		WinningAttribute: out.Round.WinningAttribute,
	}
	for i, w := range out.Round.Entities {
		e, err := w.toEntity()
		if err != nil {
			return verdict.Round{}, err
		}
		round.Entities[i] = e
	}
	return round, nil
}

// Seed asks the server to write the sample catalog.
func (c *Client) Seed(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"seedDatabase"`
	}
	if err := c.do(ctx, `mutation { seedDatabase }`, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// GameStats returns the server's per-kind entity counts.
func (c *Client) GameStats(ctx context.Context) (types.GameStats, error) {
	var out struct {
		Stats types.GameStats `json:"gameStats"`
	}
	if err := c.do(ctx, `{ gameStats { peopleCount starshipsCount } }`, nil, &out); err != nil {
		return types.GameStats{}, err
	}
	return out.Stats, nil
}
