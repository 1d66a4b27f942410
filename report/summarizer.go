package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/requisition"
)

// Status texts returned to the caller instead of an error.
const (
	AnalysisEmpty  = "Tahlil natijasi olinmadi."
	AnalysisFailed = "Xatolik yuz berdi: AI xizmati bilan bog'lanib bo'lmadi."
)

var ErrSummarizerDisabled = errors.New("summarizer is not configured")

// Summarizer produces a free-text analysis of requisitions.
type Summarizer interface {
	Analyze(ctx context.Context, reqs []requisition.Requisition) (string, error)
}

// Analysis runs s and folds every failure into a status text. It never
// returns an error; the analysis is advisory only.
func Analysis(ctx context.Context, s Summarizer, reqs []requisition.Requisition, log logrus.FieldLogger) string {
	if s == nil {
		return AnalysisFailed
	}
	text, err := s.Analyze(ctx, reqs)
	if err != nil {
		log.WithError(err).Warn("requisition analysis failed")
		return AnalysisFailed
	}
	if strings.TrimSpace(text) == "" {
		return AnalysisEmpty
	}
	return text
}

// summaryItem is the compact form sent to the model.
type summaryItem struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
	Date    string `json:"date"`
	Org     string `json:"org"`
}

// Prompt builds the analysis prompt from approved requisitions.
func Prompt(reqs []requisition.Requisition) (string, error) {
	items := []summaryItem{}
	for _, r := range reqs {
		if r.Status != requisition.StatusApproved {
			continue
		}
		items = append(items, summaryItem{
			Product: r.ProductName,
			Qty:     r.Quantity,
			Date:    r.CreatedAt.Format("2006-01-02"),
			Org:     r.RequesterName,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Quyidagi ma'lumotlar tashkilotlarning tasdiqlangan mahsulot talabnomalari ro'yxati (JSON formatida).
Ma'lumotlar: %s

Iltimos, ushbu ma'lumotlarni o'zbek tilida tahlil qilib bering.
Quyidagilarni o'z ichiga olsin:
1. Eng ko'p talab qilingan mahsulotlar.
2. Eng faol tashkilotlar.
3. G'ayrioddiy tendentsiyalar (agar bo'lsa).
4. Kelajak uchun qisqacha tavsiya.

Javobni chiroyli formatda, markdown ro'yxatlari bilan qaytar.`, data), nil
}

// =============================================================================
// GEMINI
// =============================================================================

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// GeminiSummarizer calls the generateContent REST endpoint.
type GeminiSummarizer struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *http.Client
}

func NewGeminiSummarizer(endpoint, model, apiKey string) *GeminiSummarizer {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiSummarizer{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Model:    model,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiSummarizer) Analyze(ctx context.Context, reqs []requisition.Requisition) (string, error) {
	if g.APIKey == "" {
		return "", ErrSummarizerDisabled
	}
	prompt, err := Prompt(reqs)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.Endpoint, g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("summarizer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode summarizer response: %w", err)
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
