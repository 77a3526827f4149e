// Package mock provides test doubles for wicket interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/fwojciec/wicket"
)

// Interface compliance check.
var _ wicket.Backend = (*Backend)(nil)

// Backend is a test double for wicket.Backend.
// Set the function fields for the methods you need.
type Backend struct {
	AuthenticateFn func(ctx context.Context, initData string) (wicket.Session, error)
	HistoryFn      func(ctx context.Context, token string, after int64) ([]wicket.Message, error)
	SendFn         func(ctx context.Context, token, text string) error
	SendFileFn     func(ctx context.Context, token, text string, file wicket.Upload) error
	CloseFn        func(ctx context.Context, token string) error
}

// Authenticate delegates to AuthenticateFn.
func (b *Backend) Authenticate(ctx context.Context, initData string) (wicket.Session, error) {
	return b.AuthenticateFn(ctx, initData)
}

// History delegates to HistoryFn.
func (b *Backend) History(ctx context.Context, token string, after int64) ([]wicket.Message, error) {
	return b.HistoryFn(ctx, token, after)
}

// Send delegates to SendFn.
func (b *Backend) Send(ctx context.Context, token, text string) error {
	return b.SendFn(ctx, token, text)
}

// SendFile delegates to SendFileFn.
func (b *Backend) SendFile(ctx context.Context, token, text string, file wicket.Upload) error {
	return b.SendFileFn(ctx, token, text, file)
}

// Close delegates to CloseFn.
func (b *Backend) Close(ctx context.Context, token string) error {
	return b.CloseFn(ctx, token)
}
