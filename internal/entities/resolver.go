package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Entity is a lightweight view of an upstream registry entry. CameraName
// carries the backend camera name when the entity belongs to a camera
// integration, and is what automatic-trigger detection resolves against.
type Entity struct {
	ID           string `json:"entity_id"`
	FriendlyName string `json:"friendly_name,omitempty"`
	CameraName   string `json:"camera_name,omitempty"`
}

// Resolver looks up entities by ID.
type Resolver interface {
	Resolve(ctx context.Context, entityID string) (*Entity, error)
	ResolveAll(ctx context.Context) ([]*Entity, error)
}

// HTTPResolver fetches entities from the upstream registry REST API.
type HTTPResolver struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPResolver(baseURL, token string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type stateEntry struct {
	EntityID   string `json:"entity_id"`
	Attributes struct {
		FriendlyName string `json:"friendly_name"`
		CameraName   string `json:"camera_name"`
	} `json:"attributes"`
}

func (r *HTTPResolver) ResolveAll(ctx context.Context) ([]*Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/states", nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entity registry fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entity registry: status %d", resp.StatusCode)
	}

	var states []stateEntry
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, err
	}

	out := make([]*Entity, 0, len(states))
	for _, s := range states {
		out = append(out, &Entity{
			ID:           s.EntityID,
			FriendlyName: s.Attributes.FriendlyName,
			CameraName:   s.Attributes.CameraName,
		})
	}
	return out, nil
}

func (r *HTTPResolver) Resolve(ctx context.Context, entityID string) (*Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/states/"+entityID, nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entity lookup %s: %w", entityID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("entity %s not found", entityID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entity lookup %s: status %d", entityID, resp.StatusCode)
	}

	var s stateEntry
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &Entity{
		ID:           s.EntityID,
		FriendlyName: s.Attributes.FriendlyName,
		CameraName:   s.Attributes.CameraName,
	}, nil
}
