/*
service.go - Requisition lifecycle

PURPOSE:
  Orchestrates creation, status changes, edits and deletion of
  requisitions. Status changes are the only trigger for ledger writes
  originating here.

ATOMICITY:
  SetStatus runs inside Store.WithTx: the ledger pair and the new status
  commit together or not at all. The status is written last and
  unconditionally, whether or not the transition emitted entries.

NOTIFICATIONS:
  Create hands the saved requisition to the Notifier and ignores the
  outcome apart from logging. A notifier outage never blocks or rolls back
  a submission.

EXAMPLE:
  svc := requisition.NewService(store, ledger.NewLedger(store), catalogSvc, dispatcher)

  r, err := svc.Create(ctx, clinic, requisition.Draft{ProductID: "p1", Variant: "0.200", Quantity: 3})
  r, txs, err := svc.SetStatus(ctx, r.ID, requisition.StatusApproved) // txs: admin OUT 3, clinic IN 3

SEE ALSO:
  - transition.go: Transition/Entries
  - notify/dispatcher.go: Asynchronous Notifier implementation
*/
package requisition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/metrics"
	"github.com/warp/supply-ledger/validation"
)

// Catalog resolves product ids to their current definition.
type Catalog interface {
	Product(ctx context.Context, id ledger.ProductID) (catalog.Product, error)
}

// Notifier receives every newly created requisition. Implementations must
// not block on the network.
type Notifier interface {
	Notify(ctx context.Context, r Requisition) error
}

type Service struct {
	Store    TxStore
	Ledger   *ledger.DefaultLedger
	Catalog  Catalog
	Notifier Notifier
	Clock    func() time.Time
	NewID    func() string
	Log      logrus.FieldLogger
}

func NewService(store TxStore, l *ledger.DefaultLedger, cat Catalog, n Notifier) *Service {
	return &Service{
		Store:    store,
		Ledger:   l,
		Catalog:  cat,
		Notifier: n,
		Clock:    time.Now,
		NewID:    func() string { return "req-" + uuid.NewString() },
		Log:      logrus.StandardLogger(),
	}
}

// =============================================================================
// CREATE
// =============================================================================

// Create records a new Pending requisition for requester.
func (s *Service) Create(ctx context.Context, requester catalog.Participant, d Draft) (Requisition, error) {
	if !requester.IsOrganization() {
		return Requisition{}, ErrNotRequester
	}
	d.Comment = strings.TrimSpace(d.Comment)
	d.BloodGroup = strings.TrimSpace(d.BloodGroup)
	if err := validation.Struct(d); err != nil {
		return Requisition{}, err
	}

	product, err := s.Catalog.Product(ctx, d.ProductID)
	if err != nil {
		return Requisition{}, err
	}
	variant, err := catalog.ResolveVariant(product, d.Variant)
	if err != nil {
		return Requisition{}, err
	}

	r := Requisition{
		ID:            s.NewID(),
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Unit:          product.Unit,
		Variant:       variant,
		BloodGroup:    d.BloodGroup,
		Quantity:      d.Quantity,
		Comment:       d.Comment,
		CreatedAt:     s.Clock().UTC(),
		Status:        StatusPending,
	}
	if err := s.Store.SaveRequisition(ctx, r); err != nil {
		return Requisition{}, fmt.Errorf("failed to save requisition: %w", err)
	}

	metrics.RequisitionsCreated.Inc()
	s.Log.WithFields(logrus.Fields{
		"requisition_id": r.ID,
		"requester":      r.RequesterID,
		"product":        r.ProductID,
		"quantity":       r.Quantity,
	}).Info("requisition created")

	s.notify(ctx, r)
	return r, nil
}

func (s *Service) notify(ctx context.Context, r Requisition) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, r); err != nil {
		s.Log.WithError(err).WithField("requisition_id", r.ID).Warn("requisition notification not sent")
	}
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// SetStatus moves a requisition to next and writes the ledger pair the
// transition calls for. It returns the updated record and the entries
// written (nil when the transition has no effect).
func (s *Service) SetStatus(ctx context.Context, id string, next Status) (Requisition, []ledger.StockTransaction, error) {
	if !next.Valid() {
		return Requisition{}, nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	var (
		updated Requisition
		written []ledger.StockTransaction
		effect  Effect
		prev    Status
	)
	err := s.Store.WithTx(ctx, func(rs Store, ls ledger.Store) error {
		current, err := rs.GetRequisition(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound(id)
		}

		prev = current.Status
		effect = Transition(prev, next)
		if authority, requester, ok := Entries(*current, effect); ok {
			written, err = s.Ledger.WithStore(ls).RecordPair(ctx, authority, requester)
			if err != nil {
				return err
			}
		}

		current.Status = next
		if err := rs.SaveRequisition(ctx, *current); err != nil {
			return fmt.Errorf("failed to save requisition status: %w", err)
		}
		updated = *current
		return nil
	})
	if err != nil {
		return Requisition{}, nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(effect)).Inc()
	s.Log.WithFields(logrus.Fields{
		"requisition_id": id,
		"from":           prev,
		"to":             next,
		"effect":         effect,
		"entries":        len(written),
	}).Info("requisition status changed")

	return updated, written, nil
}

// =============================================================================
// EDIT / DELETE
// =============================================================================

// Edit applies an Authority correction. It never writes ledger entries, so
// product, variant and quantity of an Approved requisition are locked
// (ErrEditApproved); comment and blood group stay editable.
func (s *Service) Edit(ctx context.Context, id string, p Patch) (Requisition, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Requisition{}, err
	}
	if current.Status == StatusApproved && p.movesStock(current) {
		return Requisition{}, ErrEditApproved
	}

	next := current
	productChanged := p.ProductID != nil && *p.ProductID != current.ProductID
	if productChanged || p.Variant != nil {
		productID := current.ProductID
		if p.ProductID != nil {
			productID = *p.ProductID
		}
		product, err := s.Catalog.Product(ctx, productID)
		if err != nil {
			return Requisition{}, err
		}

		variant := current.Variant
		if p.Variant != nil {
			variant = *p.Variant
		} else if !product.HasVariant(variant) {
			// switching product: keep the variant if the new product has it
			variant = ""
		}
		resolved, err := catalog.ResolveVariant(product, variant)
		if err != nil {
			return Requisition{}, err
		}

		next.ProductID = product.ID
		next.ProductName = product.Name
		next.Unit = product.Unit
		next.Variant = resolved
	}
	if p.BloodGroup != nil {
		next.BloodGroup = strings.TrimSpace(*p.BloodGroup)
	}
	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}
	if p.Comment != nil {
		next.Comment = strings.TrimSpace(*p.Comment)
	}

	if err := validation.Struct(Draft{
		ProductID:  next.ProductID,
		Variant:    next.Variant,
		BloodGroup: next.BloodGroup,
		Quantity:   next.Quantity,
		Comment:    next.Comment,
	}); err != nil {
		return Requisition{}, err
	}

	if err := s.Store.SaveRequisition(ctx, next); err != nil {
		return Requisition{}, fmt.Errorf("failed to save requisition: %w", err)
	}
	s.Log.WithField("requisition_id", id).Info("requisition edited")
	return next, nil
}

// Delete removes the requisition. Ledger entries it produced remain.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Store.DeleteRequisition(ctx, id); err != nil {
		return fmt.Errorf("failed to delete requisition: %w", err)
	}
	s.Log.WithField("requisition_id", id).Info("requisition deleted")
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) Get(ctx context.Context, id string) (Requisition, error) {
	r, err := s.Store.GetRequisition(ctx, id)
	if err != nil {
		return Requisition{}, err
	}
	if r == nil {
		return Requisition{}, notFound(id)
	}
	return *r, nil
}

// List returns matching requisitions, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Requisition, error) {
	return s.Store.ListRequisitions(ctx, f)
}

// Transactions returns the ledger entries generated by a requisition.
func (s *Service) Transactions(ctx context.Context, id string) ([]ledger.StockTransaction, error) {
	return s.Ledger.ByRequisition(ctx, id)
}
