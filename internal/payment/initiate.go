package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
)

// Initiator starts a wallet topup: it validates the amount locally and
// asks the backend for a gateway-hosted payment link.
type Initiator struct {
	wallet port.WalletAPI
	creds  port.CredentialSource
	logger *zap.Logger
}

func NewInitiator(wallet port.WalletAPI, creds port.CredentialSource, logger *zap.Logger) *Initiator {
	return &Initiator{wallet: wallet, creds: creds, logger: logger}
}

// Initiate requests a payment link for amount. Amounts must be
// positive; the gateway minimum is enforced by the backend.
func (i *Initiator) Initiate(ctx context.Context, amount float64) (*domain.TopupInitiation, error) {
	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be greater than zero"}
	}
	cred := i.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	init, err := i.wallet.InitiateTopup(ctx, cred, amount, domain.PayCard)
	if err != nil {
		return nil, err
	}
	if init.TxRef == "" {
		// Older backend versions omit the reference; mint one so the
		// confirmation page always has a tx_ref to show.
		init.TxRef = "FP-" + uuid.NewString()
	}
	i.logger.Info("topup initiated",
		zap.Float64("amount", amount),
		zap.String("tx_ref", init.TxRef))
	return init, nil
}
