package api

import (
	"context"
	"time"
)

// BankAccount is the deposit destination shown to the user.
type BankAccount struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// PaymentRequest is one manual-deposit payment request.
type PaymentRequest struct {
	ID                 string     `json:"id"`
	Plan               Plan       `json:"plan"`
	Status             string     `json:"status"` // pending | deposit_confirmed | approved | rejected
	RequestedAt        *time.Time `json:"requested_at"`
	DepositConfirmed   bool       `json:"deposit_confirmed"`
	DepositConfirmedAt *time.Time `json:"deposit_confirmed_at"`
	Approved           bool       `json:"approved"`
	ApprovedAt         *time.Time `json:"approved_at"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
}

// PaymentAccount returns the bank account deposits should go to.
func (c *Client) PaymentAccount(ctx context.Context) (*BankAccount, error) {
	var out BankAccount
	if err := c.get(ctx, "/payment/account/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPayment opens a payment request for the given plan.
func (c *Client) RequestPayment(ctx context.Context, planID string) (*PaymentRequest, error) {
	var out struct {
		Message        string          `json:"message"`
		PaymentRequest *PaymentRequest `json:"payment_request"`
	}
	if err := c.post(ctx, "/payment/request/", map[string]string{"plan_id": planID}, &out); err != nil {
		return nil, err
	}
	return out.PaymentRequest, nil
}

// ConfirmDeposit marks a payment request as deposit-made, pending admin
// approval.
func (c *Client) ConfirmDeposit(ctx context.Context, paymentRequestID string) (*PaymentRequest, error) {
	var out struct {
		Message        string          `json:"message"`
		PaymentRequest *PaymentRequest `json:"payment_request"`
	}
	if err := c.post(ctx, "/payment/deposit/confirm/", map[string]string{"payment_request_id": paymentRequestID}, &out); err != nil {
		return nil, err
	}
	return out.PaymentRequest, nil
}

// PaymentStatus lists the user's payment requests, newest first.
func (c *Client) PaymentStatus(ctx context.Context) ([]PaymentRequest, error) {
	var out listEnvelope[PaymentRequest]
	if err := c.get(ctx, "/payment/status/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
