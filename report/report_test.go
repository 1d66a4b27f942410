package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/supply-ledger/requisition"
)

var day = time.Date(2025, 4, 7, 9, 30, 0, 0, time.UTC)

func req(id, org, orgName, product, variant, unit string, qty int, status requisition.Status) requisition.Requisition {
	return requisition.Requisition{
		ID:            id,
		RequesterID:   org,
		RequesterName: orgName,
		ProductName:   product,
		Variant:       variant,
		Unit:          unit,
		Quantity:      qty,
		Status:        status,
		CreatedAt:     day,
	}
}

func sample() []requisition.Requisition {
	return []requisition.Requisition{
		req("r1", "org-a", "Clinic A", "СЗП", "0.200", "litr", 3, requisition.StatusApproved),
		req("r2", "org-b", "Clinic B", "СЗП", "0.200", "litr", 2, requisition.StatusApproved),
		req("r3", "org-a", "Clinic A", "Krio", "", "Doza", 5, requisition.StatusApproved),
		req("r4", "org-a", "Clinic A", "Ermassa (2A)", "0.199L", "litr", 10, requisition.StatusApproved),
		req("r5", "org-b", "Clinic B", "Tromba", "0.400", "litr", 50, requisition.StatusPending),
		req("r6", "org-b", "Clinic B", "Tromba", "0.400", "litr", 7, requisition.StatusRejected),
	}
}

func TestBuild_AllOrganizations(t *testing.T) {
	rep := Build(sample(), "")

	assert.Equal(t, StatusCounts{Pending: 1, Approved: 4, Rejected: 1}, rep.Statuses)
	assert.Equal(t, 20, rep.ApprovedQuantity)
	assert.Equal(t, []LabelTotal{
		{Label: "СЗП (0.200)", Quantity: 5},
		{Label: "Krio", Quantity: 5},
		{Label: "Ermassa (2A) (0.199L)", Quantity: 10},
	}, rep.Products)
	assert.Equal(t, []OrgCount{
		{OrgID: "org-a", OrgName: "Clinic A", Requests: 3},
		{OrgID: "org-b", OrgName: "Clinic B", Requests: 1},
	}, rep.Organizations)

	// 5 * 0.200 + 10 * 0.199 litres; Krio has no numeric variant
	require.Len(t, rep.Volumes, 1)
	assert.Equal(t, "litr", rep.Volumes[0].Unit)
	assert.True(t, decimal.RequireFromString("2.99").Equal(rep.Volumes[0].Volume), rep.Volumes[0].Volume.String())
}

func TestBuild_OrgFilter(t *testing.T) {
	rep := Build(sample(), "org-b")

	assert.Equal(t, "org-b", rep.OrgFilter)
	assert.Equal(t, StatusCounts{Pending: 1, Approved: 1, Rejected: 1}, rep.Statuses)
	assert.Equal(t, []LabelTotal{{Label: "СЗП (0.200)", Quantity: 2}}, rep.Products)
	assert.Equal(t, 2, rep.ApprovedQuantity)
}

func TestBuild_EmptyHasNonNilSlices(t *testing.T) {
	rep := Build(nil, "")

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"products":[]`)
	assert.Contains(t, string(data), `"volumes":[]`)
}

func TestVariantSize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0.250", "0.25", true},
		{"0.199L", "0.199", true},
		{" 0.4l ", "0.4", true},
		{"", "0", false},
		{"default", "0", false},
	}
	for _, tt := range tests {
		got, ok := VariantSize(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func TestRows_ApprovedOnlyWithDashes(t *testing.T) {
	rows := Rows(sample(), "org-a")

	require.Len(t, rows, 3)
	assert.Equal(t, Row{Organization: "Clinic A", Product: "Krio", Variant: "-", BloodGroup: "-", Quantity: 5, Date: "07.04.2025"}, rows[1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{Organization: "Clinic, A", Product: "СЗП", Variant: "0.200", BloodGroup: "A(II)", Quantity: 3, Date: "07.04.2025"}}

	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Tashkilot,Mahsulot,Hajmi,Guruh,Soni,Sana", lines[0])
	assert.Equal(t, `"Clinic, A",СЗП,0.200,A(II),3,07.04.2025`, lines[1])
}

// =============================================================================
// SUMMARIZER
// =============================================================================

type stubSummarizer struct {
	text string
	err  error
}

func (s stubSummarizer) Analyze(context.Context, []requisition.Requisition) (string, error) {
	return s.text, s.err
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAnalysis_NeverFails(t *testing.T) {
	ctx := context.Background()
	log := quietLogger()

	assert.Equal(t, "ok", Analysis(ctx, stubSummarizer{text: "ok"}, nil, log))
	assert.Equal(t, AnalysisEmpty, Analysis(ctx, stubSummarizer{text: "  "}, nil, log))
	assert.Equal(t, AnalysisFailed, Analysis(ctx, stubSummarizer{err: errors.New("down")}, nil, log))
	assert.Equal(t, AnalysisFailed, Analysis(ctx, nil, nil, log))
}

func TestPrompt_ApprovedOnly(t *testing.T) {
	prompt, err := Prompt(sample())
	require.NoError(t, err)

	assert.Contains(t, prompt, `"product":"Krio","qty":5,"date":"2025-04-07","org":"Clinic A"`)
	assert.NotContains(t, prompt, "Tromba")
}

func TestGeminiSummarizer_Analyze(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"## Tahlil"},{"text":" tayyor"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGeminiSummarizer(srv.URL+"/", "test-model", "key-1")
	text, err := g.Analyze(context.Background(), sample())

	require.NoError(t, err)
	assert.Equal(t, "## Tahlil tayyor", text)
	assert.Equal(t, "/v1beta/models/test-model:generateContent", gotPath)
	assert.Equal(t, "key-1", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Clinic A")
}

func TestGeminiSummarizer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGeminiSummarizer(srv.URL, "", "key").Analyze(context.Background(), nil)
	assert.ErrorContains(t, err, "429")

	_, err = NewGeminiSummarizer(srv.URL, "", "").Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSummarizerDisabled)
}
