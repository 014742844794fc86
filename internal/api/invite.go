package api

import (
	"context"
	"time"
)

// InviteCode is a friend-invite code created by the current user.
type InviteCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Inviter   string     `json:"inviter"`
	Invitee   string     `json:"invitee"`
	IsUsed    bool       `json:"is_used"`
	UsedAt    *time.Time `json:"used_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// InviteStats summarizes the user's invite activity.
type InviteStats struct {
	TotalInvites        int   `json:"total_invites"`
	UsedInvites         int   `json:"used_invites"`
	PendingInvites      int   `json:"pending_invites"`
	ReceivedBonusTokens int64 `json:"received_bonus_tokens"`
}

// InviteRedemption is the result of redeeming an invite code.
type InviteRedemption struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	BonusTokens int64  `json:"bonus_tokens"`
}

// CreateInvite creates a new invite code valid for expiresInDays days.
func (c *Client) CreateInvite(ctx context.Context, expiresInDays int) (*InviteCode, error) {
	body := map[string]int{}
	if expiresInDays > 0 {
		body["expires_in_days"] = expiresInDays
	}
	var out InviteCode
	if err := c.post(ctx, "/invite/create/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invites lists the invite codes the user has created.
func (c *Client) Invites(ctx context.Context) ([]InviteCode, error) {
	var out listEnvelope[InviteCode]
	if err := c.get(ctx, "/invite/list/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// UseInvite redeems an invite code for bonus tokens.
func (c *Client) UseInvite(ctx context.Context, code string) (*InviteRedemption, error) {
	var out InviteRedemption
	if err := c.post(ctx, "/invite/use/", map[string]string{"code": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InviteStats returns the user's invite statistics.
func (c *Client) InviteStats(ctx context.Context) (*InviteStats, error) {
	var out InviteStats
	if err := c.get(ctx, "/invite/stats/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
