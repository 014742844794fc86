package api

import (
	"context"
	"time"
)

// CustomInstructions is the user's standing instruction text applied to
// every generation.
type CustomInstructions struct {
	ID           string    `json:"id"`
	Instructions string    `json:"instructions"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomInstructions returns the user's instructions, or (nil, nil) when
// none have been saved yet.
func (c *Client) CustomInstructions(ctx context.Context) (*CustomInstructions, error) {
	var out listEnvelope[CustomInstructions]
	if err := c.get(ctx, "/custom-instructions/", &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return &out.Results[0], nil
}

type instructionsRequest struct {
	Instructions string `json:"instructions"`
	IsActive     bool   `json:"is_active"`
}

// SaveCustomInstructions creates or updates the instruction record. The
// backend keeps at most one per user, so an existing record is patched in
// place.
func (c *Client) SaveCustomInstructions(ctx context.Context, instructions string, isActive bool) (*CustomInstructions, error) {
	existing, err := c.CustomInstructions(ctx)
	if err != nil {
		return nil, err
	}

	body := instructionsRequest{Instructions: instructions, IsActive: isActive}
	var out CustomInstructions
	if existing != nil {
		if err := c.patch(ctx, "/custom-instructions/"+existing.ID+"/", body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	if err := c.post(ctx, "/custom-instructions/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
