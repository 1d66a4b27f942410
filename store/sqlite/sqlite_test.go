package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func stockTx(id string, owner ledger.OwnerID, dir ledger.Direction, qty int, at time.Time) ledger.StockTransaction {
	return ledger.StockTransaction{
		ID:          ledger.TransactionID(id),
		OwnerID:     owner,
		ProductID:   "p1",
		ProductName: "СЗП",
		Variant:     "0.200",
		Quantity:    qty,
		Direction:   dir,
		Timestamp:   at,
	}
}

// =============================================================================
// LEDGER
// =============================================================================

func TestAppend_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx := stockTx("tx-1", ledger.AuthorityID, ledger.DirectionIn, 10, base.Add(123456789*time.Nanosecond))
	tx.Comment = "Kirim"
	tx.RelatedRequisitionID = "req-1"
	require.NoError(t, store.Append(ctx, tx))

	got, err := store.LoadByOwner(ctx, ledger.AuthorityID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx, got[0])
}

func TestAppend_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx := stockTx("tx-1", ledger.AuthorityID, ledger.DirectionIn, 10, base)
	require.NoError(t, store.Append(ctx, tx))

	err := store.Append(ctx, tx)
	assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)
}

func TestAppendBatch_AllOrNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, stockTx("tx-1", "org-1", ledger.DirectionIn, 1, base)))

	err := store.AppendBatch(ctx, []ledger.StockTransaction{
		stockTx("tx-2", ledger.AuthorityID, ledger.DirectionOut, 3, base),
		stockTx("tx-1", "org-1", ledger.DirectionIn, 3, base),
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "tx-2 must not survive the failed batch")
}

func TestLoad_OrderedByTimestampThenInsertion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// inserted out of time order; the last two share a timestamp
	require.NoError(t, store.Append(ctx, stockTx("late", "org-1", ledger.DirectionIn, 1, base.Add(time.Hour))))
	require.NoError(t, store.Append(ctx, stockTx("early", "org-1", ledger.DirectionIn, 1, base)))
	require.NoError(t, store.AppendBatch(ctx, []ledger.StockTransaction{
		stockTx("pair-a", "org-1", ledger.DirectionOut, 1, base.Add(time.Minute)),
		stockTx("pair-b", "org-1", ledger.DirectionIn, 1, base.Add(time.Minute)),
	}))

	got, err := store.LoadByOwner(ctx, "org-1")
	require.NoError(t, err)
	ids := make([]ledger.TransactionID, len(got))
	for i, tx := range got {
		ids[i] = tx.ID
	}
	assert.Equal(t, []ledger.TransactionID{"early", "pair-a", "pair-b", "late"}, ids)
}

// =============================================================================
// REQUISITIONS
// =============================================================================

func sampleRequisition(id string, created time.Time) requisition.Requisition {
	return requisition.Requisition{
		ID:            id,
		RequesterID:   "org-1",
		RequesterName: "Clinic A",
		ProductID:     "p1",
		ProductName:   "СЗП",
		Unit:          "litr",
		Variant:       "0.200",
		BloodGroup:    "A(II)",
		Quantity:      3,
		Comment:       "urgent",
		CreatedAt:     created,
		Status:        requisition.StatusPending,
	}
}

func TestRequisition_SaveGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleRequisition("req-a", base)
	newer := sampleRequisition("req-b", base.Add(time.Hour))
	newer.Status = requisition.StatusApproved
	require.NoError(t, store.SaveRequisition(ctx, older))
	require.NoError(t, store.SaveRequisition(ctx, newer))

	got, err := store.GetRequisition(ctx, "req-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, older, *got)

	missing, err := store.GetRequisition(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.ListRequisitions(ctx, requisition.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "req-b", list[0].ID)

	approved, err := store.ListRequisitions(ctx, requisition.Filter{RequesterID: "org-1", Status: requisition.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "req-b", approved[0].ID)
}

func TestRequisition_UpsertKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := sampleRequisition("req-a", base)
	require.NoError(t, store.SaveRequisition(ctx, r))

	r.Quantity = 9
	r.CreatedAt = base.Add(48 * time.Hour)
	require.NoError(t, store.SaveRequisition(ctx, r))

	got, err := store.GetRequisition(ctx, "req-a")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
	assert.Equal(t, base, got.CreatedAt)
}

func TestWithTx_CommitsBothTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRequisition(ctx, sampleRequisition("req-a", base)))

	err := store.WithTx(ctx, func(rs requisition.Store, ls ledger.Store) error {
		r, err := rs.GetRequisition(ctx, "req-a")
		if err != nil {
			return err
		}
		r.Status = requisition.StatusApproved
		if err := ls.AppendBatch(ctx, []ledger.StockTransaction{
			stockTx("tx-out", ledger.AuthorityID, ledger.DirectionOut, 3, base),
			stockTx("tx-in", "org-1", ledger.DirectionIn, 3, base),
		}); err != nil {
			return err
		}
		return rs.SaveRequisition(ctx, *r)
	})
	require.NoError(t, err)

	got, err := store.GetRequisition(ctx, "req-a")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusApproved, got.Status)
	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRequisition(ctx, sampleRequisition("req-a", base)))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(rs requisition.Store, ls ledger.Store) error {
		if err := ls.Append(ctx, stockTx("tx-1", ledger.AuthorityID, ledger.DirectionOut, 3, base)); err != nil {
			return err
		}
		r := sampleRequisition("req-a", base)
		r.Status = requisition.StatusApproved
		if err := rs.SaveRequisition(ctx, r); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetRequisition(ctx, "req-a")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPending, got.Status)
	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestProducts_RoundTripInInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, p := range catalog.SeedProducts {
		require.NoError(t, store.SaveProduct(ctx, p))
	}
	updated := catalog.SeedProducts[0]
	updated.Name = "Plazma"
	require.NoError(t, store.SaveProduct(ctx, updated))

	list, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(catalog.SeedProducts))
	assert.Equal(t, "Plazma", list[0].Name)
	assert.Equal(t, []string{"0.200", "0.250"}, list[0].Variants)
	assert.Equal(t, []string{}, list[5].Variants)

	require.NoError(t, store.DeleteProduct(ctx, "p1"))
	p, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestParticipants_UsernameUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveParticipant(ctx, catalog.Participant{ID: "org-1", Username: "clinic", Password: "pw", Name: "A", Role: catalog.RoleOrganization}))
	err := store.SaveParticipant(ctx, catalog.Participant{ID: "org-2", Username: "clinic", Password: "pw", Name: "B", Role: catalog.RoleOrganization})
	assert.ErrorIs(t, err, catalog.ErrDuplicateUsername)

	found, err := store.FindParticipantByUsername(ctx, "clinic")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "org-1", found.ID)
	assert.Equal(t, catalog.RoleOrganization, found.Role)
}

func TestNotifierConfig_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg, err := store.LoadNotifierConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.NotifierConfig{}, cfg)

	want := catalog.NotifierConfig{BotToken: "123:abc", ChatID: "-100"}
	require.NoError(t, store.SaveNotifierConfig(ctx, want))
	cfg, err = store.LoadNotifierConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, stockTx("tx-1", ledger.AuthorityID, ledger.DirectionIn, 1, base)))
	require.NoError(t, store.SaveRequisition(ctx, sampleRequisition("req-a", base)))
	require.NoError(t, store.SaveProduct(ctx, catalog.SeedProducts[0]))

	require.NoError(t, store.Reset(ctx))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	list, err := store.ListRequisitions(ctx, requisition.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}
