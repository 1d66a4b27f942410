/*
Package inventory holds the two stock paths that do not go through a
requisition: central intake by the Authority and consumption recorded by an
organization.

GUARDS:
  Both operations are silent no-ops (ok=false, nil error) when the quantity
  is not positive or the product does not exist. Nothing is written in
  either case.

SEE ALSO:
  - ledger/ledger.go: Record, AllBalances
  - requisition/service.go: The paired issue/revert path
*/
package inventory

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
)

// DefaultConsumptionComment is used when an organization records usage
// without a comment.
const DefaultConsumptionComment = "Ishlatildi (Chiqim)"

// Catalog is the subset of catalog.Service inventory needs.
type Catalog interface {
	Product(ctx context.Context, id ledger.ProductID) (catalog.Product, error)
	ProductRefs(ctx context.Context) ([]ledger.ProductRef, error)
}

type Service struct {
	Ledger  ledger.Ledger
	Catalog Catalog
	Log     logrus.FieldLogger
}

func NewService(l ledger.Ledger, cat Catalog) *Service {
	return &Service{Ledger: l, Catalog: cat, Log: logrus.StandardLogger()}
}

// AddCentralStock records intake into the Authority warehouse.
func (s *Service) AddCentralStock(ctx context.Context, productID ledger.ProductID, variant string, quantity int, comment string) (ledger.StockTransaction, bool, error) {
	return s.record(ctx, ledger.AuthorityID, productID, variant, quantity, ledger.DirectionIn, strings.TrimSpace(comment))
}

// RecordConsumption records usage on an organization's ledger.
func (s *Service) RecordConsumption(ctx context.Context, org ledger.OwnerID, productID ledger.ProductID, variant string, quantity int, comment string) (ledger.StockTransaction, bool, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = DefaultConsumptionComment
	}
	return s.record(ctx, org, productID, variant, quantity, ledger.DirectionOut, comment)
}

func (s *Service) record(ctx context.Context, owner ledger.OwnerID, productID ledger.ProductID, variant string, quantity int, dir ledger.Direction, comment string) (ledger.StockTransaction, bool, error) {
	log := s.Log.WithFields(logrus.Fields{"owner": owner, "product": productID, "direction": dir})
	if quantity <= 0 {
		log.WithField("quantity", quantity).Debug("ignoring non-positive stock entry")
		return ledger.StockTransaction{}, false, nil
	}

	product, err := s.Catalog.Product(ctx, productID)
	if catalog.IsNotFound(err) {
		log.Debug("ignoring stock entry for unknown product")
		return ledger.StockTransaction{}, false, nil
	}
	if err != nil {
		return ledger.StockTransaction{}, false, err
	}

	resolved, err := catalog.ResolveVariant(product, variant)
	if err != nil {
		return ledger.StockTransaction{}, false, err
	}

	tx, err := s.Ledger.Record(ctx, ledger.Entry{
		Owner:       owner,
		ProductID:   product.ID,
		ProductName: product.Name,
		Variant:     resolved,
		Quantity:    quantity,
		Direction:   dir,
		Comment:     comment,
	})
	if err != nil {
		return ledger.StockTransaction{}, false, err
	}
	log.WithFields(logrus.Fields{"quantity": quantity, "variant": resolved}).Info("stock entry recorded")
	return tx, true, nil
}

// Warehouse lists every catalog product/variant for owner with its
// current quantity, zeros included.
func (s *Service) Warehouse(ctx context.Context, owner ledger.OwnerID) ([]ledger.Balance, error) {
	refs, err := s.Catalog.ProductRefs(ctx)
	if err != nil {
		return nil, err
	}
	return s.Ledger.AllBalances(ctx, owner, refs)
}

// History returns the owner's stock log, oldest first.
func (s *Service) History(ctx context.Context, owner ledger.OwnerID) ([]ledger.StockTransaction, error) {
	return s.Ledger.History(ctx, owner)
}
