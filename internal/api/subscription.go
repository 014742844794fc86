package api

import (
	"context"
	"time"
)

// Plan is one subscription tier.
type Plan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	PlanType      string   `json:"plan_type"` // free | basic | pro | enterprise
	Price         string   `json:"price"`
	MonthlyLimit  int64    `json:"monthly_limit"`
	AllowedModels []string `json:"allowed_models"`
	IsActive      bool     `json:"is_active"`
	Description   string   `json:"description"`
}

// Subscription is the current user's active subscription.
type Subscription struct {
	ID                   string     `json:"id"`
	Plan                 Plan       `json:"plan"`
	IsActive             bool       `json:"is_active"`
	CurrentUsage         int64      `json:"current_usage"`
	BonusTokens          int64      `json:"bonus_tokens"`
	TotalAvailableTokens int64      `json:"total_available_tokens"`
	RemainingTokens      int64      `json:"remaining_tokens"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
}

// Usage is the monthly token-usage summary.
type Usage struct {
	CurrentUsage    int64   `json:"current_usage"`
	MonthlyLimit    int64   `json:"monthly_limit"`
	BonusTokens     int64   `json:"bonus_tokens"`
	TotalAvailable  int64   `json:"total_available"`
	Remaining       int64   `json:"remaining"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// ModelAvailability reports whether one model is usable on the current plan.
type ModelAvailability struct {
	ModelName   string `json:"model_name"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
}

// Plans lists all subscription plans.
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var out listEnvelope[Plan]
	if err := c.get(ctx, "/subscription-plans/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CurrentSubscription returns the user's active subscription.
func (c *Client) CurrentSubscription(ctx context.Context) (*Subscription, error) {
	var out Subscription
	if err := c.get(ctx, "/subscriptions/current/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UsageStats returns the user's monthly usage summary.
func (c *Client) UsageStats(ctx context.Context) (*Usage, error) {
	var out Usage
	if err := c.get(ctx, "/subscriptions/usage/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableModels lists model availability for the current plan.
func (c *Client) AvailableModels(ctx context.Context) ([]ModelAvailability, error) {
	var out listEnvelope[ModelAvailability]
	if err := c.get(ctx, "/subscriptions/available_models/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ChangePlan switches the user's subscription to the given plan.
func (c *Client) ChangePlan(ctx context.Context, planID string) (*Subscription, error) {
	var out struct {
		Message      string        `json:"message"`
		Subscription *Subscription `json:"subscription"`
	}
	if err := c.post(ctx, "/subscriptions/change/", map[string]string{"plan_id": planID}, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}
