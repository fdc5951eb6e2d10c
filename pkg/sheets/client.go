package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskboard/pkg/auth"
)

// NewClient creates a Sheets client authenticated with creds.
func NewClient(ctx context.Context, creds auth.Options, logger *zap.Logger) (*Client, error) {
	opt, err := auth.ClientOption(ctx, creds, []string{sheetsapi.SpreadsheetsReadonlyScope})
	if err != nil {
		return nil, err
	}

	srv, err := sheetsapi.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return NewSheetsClient(srv, logger), nil
}

// NewClientWithOptions creates a client from raw API options, for endpoints
// that need no credential lookup.
func NewClientWithOptions(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return NewSheetsClient(srv, logger), nil
}
