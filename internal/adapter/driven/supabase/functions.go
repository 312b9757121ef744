package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountDeleter = (*Functions)(nil)

const deleteAccountPath = "/functions/v1/delete-account"

// Functions calls the project's Edge Functions.
type Functions struct {
	client *Client
}

// NewFunctions creates a Functions client.
func NewFunctions(client *Client) *Functions {
	return &Functions{client: client}
}

type functionResult struct {
	Error string `json:"error"`
}

// DeleteAccount implements driven.AccountDeleter. The function authenticates
// the caller from the bearer token and removes the account with its entries.
func (f *Functions) DeleteAccount(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("deleting account: access token is required")
	}

	var res functionResult
	err := f.client.do(ctx, request{
		method: http.MethodPost,
		path:   deleteAccountPath,
		bearer: accessToken,
		header: http.Header{"Content-Type": {"application/json"}},
	}, &res)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if res.Error != "" {
		return fmt.Errorf("deleting account: %w", &driven.BackendError{Status: http.StatusOK, Message: res.Error})
	}
	return nil
}
