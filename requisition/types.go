/*
Package requisition implements the request lifecycle between organizations
and the central warehouse.

PURPOSE:
  An Organization asks the central Authority for a quantity of a product.
  The Authority approves or rejects it, and may change its mind any number
  of times. Stock moves only as a side effect of entering or leaving the
  Approved status.

STATUS FLOW:
  ┌─────────┐   approve    ┌──────────┐
  │ Pending │ ───────────▶ │ Approved │──▶ Authority OUT + Org IN
  └─────────┘              └──────────┘
       ▲  │                   │    ▲
       │  │ reject     revert │    │ re-approve
       │  ▼                   ▼    │
  ┌──────────┐  ◀────────────────────  Authority IN + Org OUT
  │ Rejected │
  └──────────┘

  Every status may move to every other status; there is no terminal state.

SEE ALSO:
  - transition.go: The (prev, next) -> effect rule
  - service.go: Create / SetStatus / Edit / Delete
  - ledger/ledger.go: Where the paired entries land
*/
package requisition

import (
	"time"

	"github.com/warp/supply-ledger/ledger"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Requisition is a request from an organization. RequesterName, ProductName
// and Unit are snapshots taken when the record was created (or when an
// edit switched the product).
type Requisition struct {
	ID            string           `json:"id"`
	RequesterID   string           `json:"requester_id"`
	RequesterName string           `json:"requester_name"`
	ProductID     ledger.ProductID `json:"product_id"`
	ProductName   string           `json:"product_name"`
	Unit          string           `json:"unit"`
	Variant       string           `json:"variant,omitempty"`
	BloodGroup    string           `json:"blood_group,omitempty"`
	Quantity      int              `json:"quantity"`
	Comment       string           `json:"comment,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Status        Status           `json:"status"`
}

// Owner is the requester's ledger.
func (r Requisition) Owner() ledger.OwnerID { return ledger.OwnerID(r.RequesterID) }

// Draft is what an organization submits.
type Draft struct {
	ProductID  ledger.ProductID `validate:"required"`
	Variant    string           `validate:"max=40"`
	BloodGroup string           `validate:"omitempty,blood_group"`
	Quantity   int              `validate:"gt=0"`
	Comment    string           `validate:"max=1000"`
}

// Patch is an Authority edit. Nil fields are left unchanged.
type Patch struct {
	ProductID  *ledger.ProductID
	Variant    *string
	BloodGroup *string
	Quantity   *int
	Comment    *string
}

// movesStock reports whether the patch touches the fields the ledger
// entries were built from.
func (p Patch) movesStock(current Requisition) bool {
	if p.ProductID != nil && *p.ProductID != current.ProductID {
		return true
	}
	if p.Variant != nil && *p.Variant != current.Variant {
		return true
	}
	if p.Quantity != nil && *p.Quantity != current.Quantity {
		return true
	}
	return false
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	RequesterID string
	Status      Status
}

func (f Filter) Match(r Requisition) bool {
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}
