// Package cli provides CLI output formatting and an HTTP client for TrendLens.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one line per keyword.
	OutputCompact OutputFormat = "compact"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON, OutputCompact:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or compact)", s)
	}
}

// WriteBatch writes a batch response to w, keywords sorted.
func WriteBatch(w io.Writer, resp models.BatchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := resp[k]
		if entry.Error != "" || entry.Result == nil {
			fmt.Fprintf(w, "%s: error: %s\n", k, entry.Error)
			continue
		}
		if err := WriteResult(w, entry.Result, format); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes one analysis result to w in the given format.
func WriteResult(w io.Writer, res *models.AnalysisResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		fmt.Fprintln(w, compactLine(res))
		return nil
	default:
		writeResultText(w, res)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func compactLine(res *models.AnalysisResult) string {
	latest := 0
	if n := len(res.TrendData); n > 0 {
		latest = res.TrendData[n-1].Value
	}
	return fmt.Sprintf("%s\tsource=%s\tlatest=%d\tforecast=%v\tsentiment=+%d/=%d/-%d",
		res.Keyword, res.Source, latest, res.Forecast,
		res.Sentiment.Positive, res.Sentiment.Neutral, res.Sentiment.Negative)
}

func writeResultText(w io.Writer, res *models.AnalysisResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Keyword: %s\n", res.Keyword)
	source := res.Source
	if res.Synthetic {
		source += " (live data unavailable)"
	}
	fmt.Fprintf(w, "Source:  %s\n", source)
	fmt.Fprintf(w, "Trend:   %s\n", Sparkline(res.TrendData.Values()))
	for _, p := range res.TrendData {
		fmt.Fprintf(w, "  %s  %3d\n", p.Date, p.Value)
	}
	if len(res.Forecast) > 0 {
		fmt.Fprintf(w, "Forecast (next %d): %v\n", len(res.Forecast), res.Forecast)
	}
	fmt.Fprintf(w, "Sentiment (%s): positive %d%%, neutral %d%%, negative %d%%\n",
		res.SentimentMethod, res.Sentiment.Positive, res.Sentiment.Neutral, res.Sentiment.Negative)
	if len(res.RelatedQueries) > 0 {
		names := make([]string, 0, len(res.RelatedQueries))
		for _, q := range res.RelatedQueries {
			names = append(names, q.Query)
		}
		fmt.Fprintf(w, "Related: %s\n", TruncateWords(strings.Join(names, ", "), 12))
	}
	for _, h := range res.Headlines {
		fmt.Fprintf(w, "  * %s\n", utils.Truncate(h, 100))
	}
	fmt.Fprintf(w, "\n%s\n\n", res.Summary)
}

// WriteHistory writes query log entries to w.
func WriteHistory(w io.Writer, resp *models.HistoryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "Showing %d of %d queries\n", len(resp.Entries), resp.Total)
	for _, e := range resp.Entries {
		line := fmt.Sprintf("#%d  %s  %s", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Keyword)
		if e.Result != nil {
			line += "  " + Sparkline(e.Result.TrendData.Values())
			if e.Result.Synthetic {
				line += "  (synthetic)"
			}
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// WriteStatus writes service status to w.
func WriteStatus(w io.Writer, status *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Queries logged:  %d\n", status.Queries)
	if status.DatabasePath != "" {
		fmt.Fprintf(w, "Database:        %s\n", status.DatabasePath)
	}
	fmt.Fprintf(w, "Disk usage:      %s\n", FormatBytes(status.DiskUsageBytes))
	if status.TrendSource != "" {
		fmt.Fprintf(w, "Trend source:    %s\n", status.TrendSource)
	}
	return nil
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a row of block characters scaled to the series maximum.
func Sparkline(values []int) string {
	maxV := 0
	for _, v := range values {
		maxV = max(maxV, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if maxV > 0 && v > 0 {
			idx = v * (len(sparkRunes) - 1) / maxV
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
