package catalog

import (
	"context"

	"github.com/warp/supply-ledger/ledger"
)

// Store persists reference data. Getters return (nil, nil) on a miss;
// the Service turns misses into typed errors.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id ledger.ProductID) (*Product, error)
	SaveProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id ledger.ProductID) error

	ListParticipants(ctx context.Context) ([]Participant, error)
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	FindParticipantByUsername(ctx context.Context, username string) (*Participant, error)
	SaveParticipant(ctx context.Context, p Participant) error
	DeleteParticipant(ctx context.Context, id string) error

	LoadNotifierConfig(ctx context.Context) (NotifierConfig, error)
	SaveNotifierConfig(ctx context.Context, cfg NotifierConfig) error
}
