/*
Package report derives read-only statistics from requisitions.

PURPOSE:
  Build aggregates approved requisitions for the statistics view: totals
  per product label, request counts per organization, issued volume per
  unit, and status counts. Nothing here touches stored state.

LABELS:
  A product label is "name (variant)", or just "name" when the
  requisition has no variant. Name and variant are the snapshots on the
  requisition, so renamed or deleted products still report correctly.

VOLUME:
  When a variant reads as a number (an optional trailing "L" is
  tolerated) the issued volume is quantity * variant, summed per unit with
  shopspring/decimal. Non-numeric variants contribute nothing.

SEE ALSO:
  - export.go: Tabular rows and CSV output
  - summarizer.go: Generative-text analysis
*/
package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/supply-ledger/requisition"
)

// LabelTotal is the approved quantity of one product label.
type LabelTotal struct {
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
}

// OrgCount is the number of approved requisitions of one organization.
type OrgCount struct {
	OrgID    string `json:"org_id"`
	OrgName  string `json:"org_name"`
	Requests int    `json:"requests"`
}

// UnitVolume is the issued volume for one unit (e.g. "Litr").
type UnitVolume struct {
	Unit   string          `json:"unit"`
	Volume decimal.Decimal `json:"volume"`
}

type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type Report struct {
	OrgFilter        string       `json:"org_filter,omitempty"`
	Products         []LabelTotal `json:"products"`
	Organizations    []OrgCount   `json:"organizations"`
	Volumes          []UnitVolume `json:"volumes"`
	Statuses         StatusCounts `json:"statuses"`
	ApprovedQuantity int          `json:"approved_quantity"`
}

// Label returns the chart label of a requisition.
func Label(r requisition.Requisition) string {
	if r.Variant == "" {
		return r.ProductName
	}
	return r.ProductName + " (" + r.Variant + ")"
}

// Build aggregates requisitions. A non-empty orgID restricts every figure
// to that organization. Output slices keep first-seen order.
func Build(reqs []requisition.Requisition, orgID string) Report {
	rep := Report{
		OrgFilter:     orgID,
		Products:      []LabelTotal{},
		Organizations: []OrgCount{},
		Volumes:       []UnitVolume{},
	}

	labelIdx := make(map[string]int)
	orgIdx := make(map[string]int)
	unitIdx := make(map[string]int)

	for _, r := range reqs {
		if orgID != "" && r.RequesterID != orgID {
			continue
		}

		switch r.Status {
		case requisition.StatusPending:
			rep.Statuses.Pending++
		case requisition.StatusApproved:
			rep.Statuses.Approved++
		case requisition.StatusRejected:
			rep.Statuses.Rejected++
		}
		if r.Status != requisition.StatusApproved {
			continue
		}

		rep.ApprovedQuantity += r.Quantity

		label := Label(r)
		if i, ok := labelIdx[label]; ok {
			rep.Products[i].Quantity += r.Quantity
		} else {
			labelIdx[label] = len(rep.Products)
			rep.Products = append(rep.Products, LabelTotal{Label: label, Quantity: r.Quantity})
		}

		if i, ok := orgIdx[r.RequesterID]; ok {
			rep.Organizations[i].Requests++
		} else {
			orgIdx[r.RequesterID] = len(rep.Organizations)
			rep.Organizations = append(rep.Organizations, OrgCount{OrgID: r.RequesterID, OrgName: r.RequesterName, Requests: 1})
		}

		size, ok := VariantSize(r.Variant)
		if !ok {
			continue
		}
		vol := size.Mul(decimal.NewFromInt(int64(r.Quantity)))
		if i, ok := unitIdx[r.Unit]; ok {
			rep.Volumes[i].Volume = rep.Volumes[i].Volume.Add(vol)
		} else {
			unitIdx[r.Unit] = len(rep.Volumes)
			rep.Volumes = append(rep.Volumes, UnitVolume{Unit: r.Unit, Volume: vol})
		}
	}
	return rep
}

// VariantSize parses a numeric variant such as "0.250" or "0.199L".
func VariantSize(variant string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(variant)
	v = strings.TrimSuffix(strings.TrimSuffix(v, "L"), "l")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
