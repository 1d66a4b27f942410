package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/warp/supply-ledger/requisition"
)

// DateLayout is the day format used in exported tables.
const DateLayout = "02.01.2006"

// Header is the column header of the export table.
var Header = []string{"Tashkilot", "Mahsulot", "Hajmi", "Guruh", "Soni", "Sana"}

// Row is one approved requisition in the export table.
type Row struct {
	Organization string `json:"organization"`
	Product      string `json:"product"`
	Variant      string `json:"variant"`
	BloodGroup   string `json:"blood_group"`
	Quantity     int    `json:"quantity"`
	Date         string `json:"date"`
}

// Rows lists approved requisitions (optionally of one organization) in
// table form. Missing variant or blood group render as "-".
func Rows(reqs []requisition.Requisition, orgID string) []Row {
	rows := []Row{}
	for _, r := range reqs {
		if r.Status != requisition.StatusApproved {
			continue
		}
		if orgID != "" && r.RequesterID != orgID {
			continue
		}
		rows = append(rows, Row{
			Organization: r.RequesterName,
			Product:      r.ProductName,
			Variant:      dash(r.Variant),
			BloodGroup:   dash(r.BloodGroup),
			Quantity:     r.Quantity,
			Date:         r.CreatedAt.Format(DateLayout),
		})
	}
	return rows
}

// WriteCSV writes the header and rows to w.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Organization, r.Product, r.Variant, r.BloodGroup, strconv.Itoa(r.Quantity), r.Date}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
