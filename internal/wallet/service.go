// Package wallet exposes the customer wallet view: balance plus the
// paged transaction history, fetched together.
package wallet

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
)

// Overview is what the wallet page renders in one shot.
type Overview struct {
	Balance      float64            `json:"balance"`
	Transactions *domain.WalletPage `json:"transactions"`
}

type Service struct {
	api    port.WalletAPI
	creds  port.CredentialSource
	logger *zap.Logger
}

func NewService(api port.WalletAPI, creds port.CredentialSource, logger *zap.Logger) *Service {
	return &Service{api: api, creds: creds, logger: logger}
}

// Overview fetches the balance and the first transaction page in
// parallel. Either failure fails the whole view.
func (s *Service) Overview(ctx context.Context, page, limit int) (*Overview, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.api.Balance(gctx, cred)
		if err != nil {
			return err
		}
		out.Balance = balance
		return nil
	})
	g.Go(func() error {
		txs, err := s.api.Transactions(gctx, cred, page, limit)
		if err != nil {
			return err
		}
		out.Transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance fetches just the current balance.
func (s *Service) Balance(ctx context.Context) (float64, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return 0, &domain.ErrSessionExpired{}
	}
	return s.api.Balance(ctx, cred)
}

// Transactions fetches one page of ledger history.
func (s *Service) Transactions(ctx context.Context, page, limit int) (*domain.WalletPage, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.api.Transactions(ctx, cred, page, limit)
}
