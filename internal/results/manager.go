// Package results stores per-run artifacts of the pipeline and produces an
// aggregate summary for dashboards: one JSON record per run plus a markdown
// table and a JSON rollup of terminal statuses.
package results

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

const (
	// StatusRendered indicates the run produced an image.
	StatusRendered RunStatus = "rendered"
	// StatusFailed indicates the run ended in a terminal error.
	StatusFailed RunStatus = "failed"
)

// RunRecord captures one pipeline invocation.
type RunRecord struct {
	ID        string          `json:"id"`
	Input     string          `json:"input"` // source path or prompt digest
	Status    RunStatus       `json:"status"`
	ErrorCode types.ErrorCode `json:"error_code,omitempty"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	ImagePath string          `json:"image_path,omitempty"`
	Width     int             `json:"width,omitempty"`
	Height    int             `json:"height,omitempty"`
	Duration  time.Duration   `json:"duration_ns"`
	CreatedAt time.Time       `json:"created_at"`
}

// Manager stores run records under a base directory.
type Manager struct {
	baseDir string
}

// NewManager creates a Manager rooted at baseDir. An empty baseDir selects
// "tex2img-results" under the user's home directory.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		baseDir = filepath.Join(homeDir, "tex2img-results")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create results directory", err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the directory the manager writes into.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// NewRunID derives a stable identifier from the input and the current time.
func NewRunID(input string) string {
	sum := md5.Sum([]byte(input))
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(sum[:])[:8]
}

// Record writes one run record to disk.
func (m *Manager) Record(rec *RunRecord) error {
	if rec.ID == "" {
		return types.NewAppError(types.ErrInvalidInput, "run record has no ID", nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to marshal run record", err)
	}

	path := filepath.Join(m.baseDir, rec.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to write run record", err)
	}

	logger.Debug("recorded run", logger.String("id", rec.ID), logger.String("status", string(rec.Status)))
	return nil
}

// List loads all run records, newest first.
func (m *Manager) List() ([]*RunRecord, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to read results directory", err)
	}

	var records []*RunRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if entry.Name() == summaryFileName {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.baseDir, entry.Name()))
		if err != nil {
			logger.Warn("skipping unreadable run record", logger.String("file", entry.Name()), logger.Err(err))
			continue
		}
		rec := &RunRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			logger.Warn("skipping invalid run record", logger.String("file", entry.Name()), logger.Err(err))
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

const (
	summaryFileName         = "summary.json"
	summaryMarkdownFileName = "summary.md"
)

// Summary is the aggregate view over all recorded runs.
type Summary struct {
	Total       int                     `json:"total"`
	Rendered    int                     `json:"rendered"`
	Failed      int                     `json:"failed"`
	ByErrorCode map[types.ErrorCode]int `json:"by_error_code"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// WriteSummary aggregates all run records and writes summary.json and
// summary.md next to them.
func (m *Manager) WriteSummary() (*Summary, error) {
	records, err := m.List()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByErrorCode: make(map[types.ErrorCode]int),
		GeneratedAt: time.Now().UTC(),
	}
	for _, rec := range records {
		summary.Total++
		switch rec.Status {
		case StatusRendered:
			summary.Rendered++
		default:
			summary.Failed++
			if rec.ErrorCode != "" {
				summary.ByErrorCode[rec.ErrorCode]++
			}
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to marshal summary", err)
	}
	if err := os.WriteFile(filepath.Join(m.baseDir, summaryFileName), data, 0644); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to write summary", err)
	}

	md := renderMarkdown(summary, records)
	if err := os.WriteFile(filepath.Join(m.baseDir, summaryMarkdownFileName), []byte(md), 0644); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to write markdown summary", err)
	}

	logger.Info("wrote run summary",
		logger.Int("total", summary.Total),
		logger.Int("rendered", summary.Rendered),
		logger.Int("failed", summary.Failed))
	return summary, nil
}

// renderMarkdown formats the summary and the run table for a dashboard.
func renderMarkdown(summary *Summary, records []*RunRecord) string {
	var sb strings.Builder

	sb.WriteString("# tex2img runs\n\n")
	fmt.Fprintf(&sb, "Total: %d, rendered: %d, failed: %d\n\n",
		summary.Total, summary.Rendered, summary.Failed)

	if len(summary.ByErrorCode) > 0 {
		sb.WriteString("## Failures by error code\n\n")
		sb.WriteString("| Error code | Count |\n|---|---|\n")
		codes := make([]string, 0, len(summary.ByErrorCode))
		for code := range summary.ByErrorCode {
			codes = append(codes, string(code))
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(&sb, "| %s | %d |\n", code, summary.ByErrorCode[types.ErrorCode(code)])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Runs\n\n")
	sb.WriteString("| ID | Status | Size | Duration | Error |\n|---|---|---|---|---|\n")
	for _, rec := range records {
		size := ""
		if rec.Status == StatusRendered {
			size = fmt.Sprintf("%dx%d", rec.Width, rec.Height)
		}
		errCol := string(rec.ErrorCode)
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			rec.ID, rec.Status, size, rec.Duration.Round(time.Millisecond), errCol)
	}

	return sb.String()
}
