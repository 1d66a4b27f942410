package requisition_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
	"github.com/warp/supply-ledger/store/memory"
	"github.com/warp/supply-ledger/validation"
)

type recordingNotifier struct {
	got []requisition.Requisition
	err error
}

func (n *recordingNotifier) Notify(_ context.Context, r requisition.Requisition) error {
	n.got = append(n.got, r)
	return n.err
}

type fixture struct {
	store    *memory.Memory
	catalog  *catalog.Service
	ledger   *ledger.DefaultLedger
	svc      *requisition.Service
	notifier *recordingNotifier
	clinic   catalog.Participant
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	cat := catalog.NewService(store)
	require.NoError(t, cat.EnsureSeed(ctx, catalog.AuthoritySeed{Username: "admin", Password: "admin"}))
	clinic, err := cat.AddOrganization(ctx, catalog.OrganizationInput{Name: "Clinic A", Username: "clinica", Password: "pw"})
	require.NoError(t, err)

	l := ledger.NewLedger(store)
	clock := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	l.Clock = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	n := &recordingNotifier{}
	svc := requisition.NewService(store, l, cat, n)
	reqs := 0
	svc.NewID = func() string {
		reqs++
		return fmt.Sprintf("req-%d", reqs)
	}
	created := time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)
	svc.Clock = func() time.Time {
		created = created.Add(time.Minute)
		return created
	}

	return &fixture{store: store, catalog: cat, ledger: l, svc: svc, notifier: n, clinic: clinic}
}

func (f *fixture) stock(t *testing.T, owner ledger.OwnerID, product ledger.ProductID, variant string) int {
	t.Helper()
	n, err := f.ledger.CurrentStock(context.Background(), owner, product, variant)
	require.NoError(t, err)
	return n
}

func (f *fixture) logSize(t *testing.T) int {
	t.Helper()
	all, err := f.store.LoadAll(context.Background())
	require.NoError(t, err)
	return len(all)
}

// =============================================================================
// TRANSITION TABLE
// =============================================================================

func TestTransition(t *testing.T) {
	tests := []struct {
		prev, next requisition.Status
		want       requisition.Effect
	}{
		{requisition.StatusPending, requisition.StatusApproved, requisition.EffectIssue},
		{requisition.StatusRejected, requisition.StatusApproved, requisition.EffectIssue},
		{requisition.StatusApproved, requisition.StatusRejected, requisition.EffectRevert},
		{requisition.StatusApproved, requisition.StatusPending, requisition.EffectRevert},
		{requisition.StatusApproved, requisition.StatusApproved, requisition.EffectNone},
		{requisition.StatusPending, requisition.StatusRejected, requisition.EffectNone},
		{requisition.StatusRejected, requisition.StatusPending, requisition.EffectNone},
		{requisition.StatusPending, requisition.StatusPending, requisition.EffectNone},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.prev, tt.next), func(t *testing.T) {
			assert.Equal(t, tt.want, requisition.Transition(tt.prev, tt.next))
		})
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_SnapshotsAndNotifies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", BloodGroup: "A(II)", Quantity: 3, Comment: "  urgent "})
	require.NoError(t, err)

	assert.Equal(t, requisition.StatusPending, r.Status)
	assert.Equal(t, "Clinic A", r.RequesterName)
	assert.Equal(t, "СЗП", r.ProductName)
	assert.Equal(t, "litr", r.Unit)
	assert.Equal(t, "0.200", r.Variant, "empty variant resolves to the first one")
	assert.Equal(t, "urgent", r.Comment)
	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, r.ID, f.notifier.got[0].ID)

	// creation never touches the ledger
	assert.Equal(t, 0, f.logSize(t))
}

func TestCreate_SnapshotSurvivesCatalogEdits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(ctx, "p6", catalog.ProductInput{Name: "Kriopresipitat", Unit: "Doza"})
	require.NoError(t, err)
	_, err = f.catalog.UpdateOrganization(ctx, f.clinic.ID, catalog.OrganizationInput{Name: "Clinic A (renamed)", Username: "clinica", Password: "pw"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Krio", got.ProductName)
	assert.Equal(t, "Clinic A", got.RequesterName)
}

func TestCreate_NotifierFailureDoesNotBlock(t *testing.T) {
	f := setup(t)
	f.notifier.err = errors.New("bot unreachable")

	r, err := f.svc.Create(context.Background(), f.clinic, requisition.Draft{ProductID: "p6", Quantity: 2})
	require.NoError(t, err)

	stored, err := f.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	authority, err := f.catalog.Participant(ctx, catalog.AuthorityParticipantID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, authority, requisition.Draft{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, requisition.ErrNotRequester)

	_, err = f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Quantity: 0})
	assert.NotNil(t, validation.Fields(err))

	_, err = f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Quantity: 1, BloodGroup: "Z"})
	assert.NotNil(t, validation.Fields(err))

	_, err = f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Variant: "9.999", Quantity: 1})
	assert.ErrorIs(t, err, catalog.ErrUnknownVariant)

	_, err = f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "nope", Quantity: 1})
	assert.True(t, requisition.IsNotFound(err))

	list, err := f.svc.List(ctx, requisition.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.notifier.got)
}

// =============================================================================
// STATUS CHANGES
// =============================================================================

func TestSetStatus_ApproveThenReject(t *testing.T) {
	// GIVEN: Clinic A requests 3 of p1/0.200
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Variant: "0.200", Quantity: 3})
	require.NoError(t, err)
	before := f.logSize(t)

	// WHEN: the Authority approves
	approved, txs, err := f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
	require.NoError(t, err)

	// THEN: Authority -3, Clinic +3, one pair linked to the requisition
	assert.Equal(t, requisition.StatusApproved, approved.Status)
	require.Len(t, txs, 2)
	assert.Equal(t, requisition.EffectIssue, requisition.EffectOf(txs))
	assert.Equal(t, ledger.AuthorityID, txs[0].OwnerID)
	assert.Equal(t, ledger.DirectionOut, txs[0].Direction)
	assert.Equal(t, "Tasdiqlangan talabnoma (Admin -> Clinic A)", txs[0].Comment)
	assert.Equal(t, f.clinic.Owner(), txs[1].OwnerID)
	assert.Equal(t, ledger.DirectionIn, txs[1].Direction)
	assert.Equal(t, "Qabul qilindi (Markazdan)", txs[1].Comment)
	for _, tx := range txs {
		assert.Equal(t, r.ID, tx.RelatedRequisitionID)
		assert.Equal(t, 3, tx.Quantity)
	}
	assert.Equal(t, -3, f.stock(t, ledger.AuthorityID, "p1", "0.200"))
	assert.Equal(t, 3, f.stock(t, f.clinic.Owner(), "p1", "0.200"))

	// WHEN: the Authority rejects the same requisition
	_, txs, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusRejected)
	require.NoError(t, err)

	// THEN: balances net out and the log grew by two more entries
	require.Len(t, txs, 2)
	assert.Equal(t, requisition.EffectRevert, requisition.EffectOf(txs))
	assert.Equal(t, ledger.DirectionIn, txs[0].Direction)
	assert.Equal(t, "Bekor qilingan talabnoma (Qaytarildi): Clinic A", txs[0].Comment)
	assert.Equal(t, ledger.DirectionOut, txs[1].Direction)
	assert.Equal(t, "Bekor qilindi (Admin tomonidan)", txs[1].Comment)
	assert.Equal(t, 0, f.stock(t, ledger.AuthorityID, "p1", "0.200"))
	assert.Equal(t, 0, f.stock(t, f.clinic.Owner(), "p1", "0.200"))
	assert.Equal(t, before+4, f.logSize(t))

	linked, err := f.svc.Transactions(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 4)
}

func TestSetStatus_NoEffectTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 5})
	require.NoError(t, err)

	// pending -> rejected -> pending writes nothing
	for _, s := range []requisition.Status{requisition.StatusRejected, requisition.StatusPending} {
		_, txs, err := f.svc.SetStatus(ctx, r.ID, s)
		require.NoError(t, err)
		assert.Empty(t, txs)
	}
	assert.Equal(t, 0, f.logSize(t))

	// re-selecting approved does not issue twice
	_, _, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
	require.NoError(t, err)
	_, txs, err := f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 2, f.logSize(t))
	assert.Equal(t, 5, f.stock(t, f.clinic.Owner(), "p6", ""))
}

func TestSetStatus_RepeatedCyclesNetOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p2", Variant: "0.263", Quantity: 2})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
		require.NoError(t, err)
		_, _, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusPending)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, f.stock(t, ledger.AuthorityID, "p2", "0.263"))
	assert.Equal(t, 0, f.stock(t, f.clinic.Owner(), "p2", "0.263"))
	assert.Equal(t, 12, f.logSize(t))
}

func TestSetStatus_InvalidAndMissing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.svc.SetStatus(ctx, "req-404", requisition.StatusApproved)
	assert.ErrorIs(t, err, requisition.ErrNotFound)

	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, r.ID, "shipped")
	assert.ErrorIs(t, err, requisition.ErrInvalidStatus)
	assert.Equal(t, 0, f.logSize(t))
}

func TestSetStatus_LedgerFailureRollsBackStatus(t *testing.T) {
	// GIVEN: a ledger whose ids collide with an existing entry
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.store.Append(ctx, ledger.StockTransaction{ID: "fixed", OwnerID: "x", ProductID: "p6", Quantity: 1, Direction: ledger.DirectionIn}))
	f.ledger.NewID = func() ledger.TransactionID { return "fixed" }

	// WHEN: approving
	_, _, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)

	// THEN: the error surfaces and neither status nor ledger changed
	assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)
	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPending, got.Status)
	assert.Equal(t, 1, f.logSize(t))
}

// =============================================================================
// EDIT / DELETE
// =============================================================================

func TestEdit_PendingCanChangeProduct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Variant: "0.250", Quantity: 2})
	require.NoError(t, err)

	product := ledger.ProductID("p5")
	qty := 7
	got, err := f.svc.Edit(ctx, r.ID, requisition.Patch{ProductID: &product, Quantity: &qty})
	require.NoError(t, err)

	assert.Equal(t, ledger.ProductID("p5"), got.ProductID)
	assert.Equal(t, "Tromba", got.ProductName)
	assert.Equal(t, "0.140", got.Variant, "variant falls back to the new product's first")
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, r.CreatedAt, got.CreatedAt)
}

func TestEdit_ApprovedLocksStockFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
	require.NoError(t, err)

	qty := 9
	_, err = f.svc.Edit(ctx, r.ID, requisition.Patch{Quantity: &qty})
	assert.ErrorIs(t, err, requisition.ErrEditApproved)

	comment := "corrected"
	got, err := f.svc.Edit(ctx, r.ID, requisition.Patch{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, "corrected", got.Comment)
	assert.Equal(t, 2, got.Quantity)

	// reverting still moves the originally issued quantity
	_, txs, err := f.svc.SetStatus(ctx, r.ID, requisition.StatusPending)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 2, txs[0].Quantity)
}

func TestDelete_KeepsLedgerEntries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 4})
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, r.ID, requisition.StatusApproved)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, r.ID))

	_, err = f.svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, requisition.ErrNotFound)
	assert.Equal(t, 4, f.stock(t, f.clinic.Owner(), "p6", ""))
	assert.Equal(t, 2, f.logSize(t))

	assert.ErrorIs(t, f.svc.Delete(ctx, r.ID), requisition.ErrNotFound)
}

func TestList_NewestFirstAndFiltered(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other, err := f.catalog.AddOrganization(ctx, catalog.OrganizationInput{Name: "Clinic B", Username: "clinicb", Password: "pw"})
	require.NoError(t, err)

	first, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, other, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)
	third, err := f.svc.Create(ctx, f.clinic, requisition.Draft{ProductID: "p6", Quantity: 1})
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, third.ID, requisition.StatusRejected)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, requisition.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := f.svc.List(ctx, requisition.Filter{RequesterID: f.clinic.ID, Status: requisition.StatusPending})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}
