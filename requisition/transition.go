package requisition

import (
	"fmt"

	"github.com/warp/supply-ledger/ledger"
)

// Effect is the ledger consequence of a status change.
type Effect string

const (
	EffectNone   Effect = "none"
	EffectIssue  Effect = "issue"  // into Approved: Authority OUT, requester IN
	EffectRevert Effect = "revert" // out of Approved: Authority IN, requester OUT
)

// Transition derives the effect purely from the (prev, next) pair.
// Re-selecting Approved is a no-op, as is any move between Pending and
// Rejected.
func Transition(prev, next Status) Effect {
	switch {
	case prev != StatusApproved && next == StatusApproved:
		return EffectIssue
	case prev == StatusApproved && next != StatusApproved:
		return EffectRevert
	default:
		return EffectNone
	}
}

// Entries builds the paired ledger entries for an effect. The Authority
// entry always comes first. EffectNone returns ok=false.
func Entries(r Requisition, effect Effect) (authority, requester ledger.Entry, ok bool) {
	base := ledger.Entry{
		ProductID:            r.ProductID,
		ProductName:          r.ProductName,
		Variant:              r.Variant,
		Quantity:             r.Quantity,
		RelatedRequisitionID: r.ID,
	}

	authority, requester = base, base
	authority.Owner = ledger.AuthorityID
	requester.Owner = r.Owner()

	switch effect {
	case EffectIssue:
		authority.Direction = ledger.DirectionOut
		authority.Comment = fmt.Sprintf("Tasdiqlangan talabnoma (Admin -> %s)", r.RequesterName)
		requester.Direction = ledger.DirectionIn
		requester.Comment = "Qabul qilindi (Markazdan)"
	case EffectRevert:
		authority.Direction = ledger.DirectionIn
		authority.Comment = fmt.Sprintf("Bekor qilingan talabnoma (Qaytarildi): %s", r.RequesterName)
		requester.Direction = ledger.DirectionOut
		requester.Comment = "Bekor qilindi (Admin tomonidan)"
	default:
		return ledger.Entry{}, ledger.Entry{}, false
	}
	return authority, requester, true
}

// EffectOf recovers the effect from the entries SetStatus returned. The
// Authority entry comes first: OUT means issue, IN means revert.
func EffectOf(written []ledger.StockTransaction) Effect {
	if len(written) == 0 {
		return EffectNone
	}
	if written[0].Direction == ledger.DirectionOut {
		return EffectIssue
	}
	return EffectRevert
}
