package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/datagrid-backend/internal/data/repos"
	"github.com/yungbote/datagrid-backend/internal/platform/apierr"
	"github.com/yungbote/datagrid-backend/internal/platform/dbctx"
	"github.com/yungbote/datagrid-backend/internal/platform/llm"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

const (
	DefaultTopK     = 50
	MaxTopK         = 200
	contextSampleN  = 10
	askSystemPrompt = "You are a data assistant. Answer succinctly and, if requested, return JSON. Use only the provided context when possible."
	askGuidance     = "If the question is purely a numeric aggregation, try to compute it from the summary. Otherwise, answer using the sample rows; say if you are uncertain because the sample may be incomplete. Return JSON if asked."
)

type QueryService interface {
	Ask(ctx context.Context, datasetID uuid.UUID, query string, topK int) (*AskResult, error)
}

// AskResult carries the provider text and, when it parses, its JSON value.
type AskResult struct {
	Answer any    `json:"answer"`
	Raw    string `json:"raw"`
}

type ColumnStats struct {
	Column string
	Min    float64
	Max    float64
	Mean   float64
}

type queryService struct {
	log       *logger.Logger
	datasets  repos.DatasetRepo
	rows      repos.RowRepo
	generator llm.Generator
}

// NewQueryService accepts a nil generator; Ask then reports the provider
// as unavailable.
func NewQueryService(baseLog *logger.Logger, datasetRepo repos.DatasetRepo, rowRepo repos.RowRepo, generator llm.Generator) QueryService {
	return &queryService{
		log:       baseLog.With("service", "QueryService"),
		datasets:  datasetRepo,
		rows:      rowRepo,
		generator: generator,
	}
}

func (s *queryService) Ask(ctx context.Context, datasetID uuid.UUID, query string, topK int) (*AskResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierr.Validation("query_required", errors.New("query required"))
	}
	if s.generator == nil {
		return nil, apierr.UpstreamUnavailable("ai_provider_unconfigured", errors.New("AI provider is not configured"))
	}

	dbc := dbctx.New(ctx)
	ds, err := s.datasets.GetByID(dbc, datasetID)
	if err != nil {
		return nil, datasetLookupError(datasetID, err)
	}
	if !ds.IsComplete() {
		return nil, apierr.NotFound("dataset_not_found", errors.New("dataset not found"))
	}

	rows, err := s.rows.ListByDataset(dbc, datasetID, ClampTopK(topK))
	if err != nil {
		return nil, apierr.Storage("row_list_failed", fmt.Errorf("sample rows: %w", err))
	}
	sample := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		sample = append(sample, map[string]any(r.Data))
	}

	columns := ds.ColumnNames()
	contextText, err := BuildContext(ds.OriginalName, ds.RowCount, columns, sample)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Ask", "dataset_id", datasetID, "sample_rows", len(sample), "provider", s.generator.Name())
	raw, err := s.generator.Generate(ctx, BuildPrompt(contextText, query))
	if err != nil {
		return nil, providerError(err)
	}
	return &AskResult{Answer: parseAnswer(raw), Raw: raw}, nil
}

// ClampTopK applies the default for zero and bounds the rest to [1, MaxTopK].
func ClampTopK(topK int) int {
	switch {
	case topK == 0:
		return DefaultTopK
	case topK < 1:
		return 1
	case topK > MaxTopK:
		return MaxTopK
	default:
		return topK
	}
}

// NumericStats returns min/max/mean for every column holding at least one
// numeric value in sample, in column order.
func NumericStats(columns []string, sample []map[string]any) []ColumnStats {
	out := make([]ColumnStats, 0, len(columns))
	for _, col := range columns {
		var (
			n   int
			sum float64
			st  = ColumnStats{Column: col, Min: math.Inf(1), Max: math.Inf(-1)}
		)
		for _, row := range sample {
			v, ok := numericValue(row[col])
			if !ok {
				continue
			}
			n++
			sum += v
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
		}
		if n == 0 {
			continue
		}
		st.Mean = sum / float64(n)
		out = append(out, st)
	}
	return out
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// BuildContext renders the dataset header, column summary and the first
// sampled rows as the prompt context block.
func BuildContext(name string, rowCount int64, columns []string, sample []map[string]any) (string, error) {
	summary := []string{"Columns: " + strings.Join(columns, ", ")}
	for _, st := range NumericStats(columns, sample) {
		summary = append(summary, fmt.Sprintf("%s → min %s, max %s, mean %.2f",
			st.Column, formatNumber(st.Min), formatNumber(st.Max), st.Mean))
	}

	head := sample
	if len(head) > contextSampleN {
		head = head[:contextSampleN]
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(head); err != nil {
		return "", apierr.New(http.StatusInternalServerError, "context_encode_failed", fmt.Errorf("encode sample rows: %w", err))
	}

	return strings.Join([]string{
		fmt.Sprintf("Dataset: %s (rows: %d)", name, rowCount),
		"Summary:\n" + strings.Join(summary, "\n"),
		fmt.Sprintf("Sample rows (first %d):", contextSampleN),
		strings.TrimRight(buf.String(), "\n"),
	}, "\n\n"), nil
}

func BuildPrompt(contextText, query string) string {
	user := "Context:\n" + contextText + "\n\nQuestion: " + query + "\n\n" + askGuidance
	return askSystemPrompt + "\n\n" + user
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseAnswer returns the decoded JSON value of raw, or raw when it is not JSON.
func parseAnswer(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil || v == nil {
		return raw
	}
	return v
}

func providerError(err error) error {
	var httpErr *llm.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return apierr.Upstream("ai_provider_error", err)
	case errors.Is(err, llm.ErrEmptyResponse):
		return apierr.Upstream("ai_empty_response", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.UpstreamUnavailable("ai_provider_timeout", err)
	default:
		return apierr.UpstreamUnavailable("ai_provider_unreachable", err)
	}
}
