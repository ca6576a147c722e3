package service

import (
	"context"
	"time"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// LedgerReader is the subset of the full node RPC the services consume. *sui.Client satisfies it.
type LedgerReader interface {
	GetObject(ctx context.Context, objectID string, opts sui.ObjectDataOptions) (*sui.ObjectResponse, error)
	GetOwnedObjects(ctx context.Context, owner string, query sui.ObjectResponseQuery, cursor *string, limit int) (*sui.ObjectsPage, error)
	GetDynamicFields(ctx context.Context, parentID string, cursor *string, limit int) (*sui.DynamicFieldPage, error)
	GetDynamicFieldObject(ctx context.Context, parentID string, name sui.DynamicFieldName) (*sui.ObjectResponse, error)
	WaitForTransaction(ctx context.Context, digest string, opts sui.TransactionBlockResponseOptions, pollInterval time.Duration) (*sui.TransactionBlockResponse, error)
}

// Signer signs a payload and submits it to the network, returning the transaction digest.
// Implementations may block indefinitely while a user approves the signature.
type Signer interface {
	SignAndSubmit(ctx context.Context, payload sui.Payload) (sui.SubmitResult, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, payload sui.Payload) (sui.SubmitResult, error)

// SignAndSubmit implements Signer.
func (f SignerFunc) SignAndSubmit(ctx context.Context, payload sui.Payload) (sui.SubmitResult, error) {
	return f(ctx, payload)
}

// SignerProvider returns a signer acting for sender.
type SignerProvider interface {
	SignerFor(sender string) (Signer, error)
}

// LedgerSettings are the per-network values every ledger-facing service needs.
type LedgerSettings struct {
	PackageID  string
	RegistryID string
}
