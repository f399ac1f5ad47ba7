package snowcam

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed html_templates/dashboard.html
var dashboardTemplate string

const (
	reportStampLayout = "20060102_150405"
	metadataOpenTag   = `<script type="application/json" id="take-metadata">`
)

// TakeMetadata is the JSON block every take report carries so the
// dashboard can list it without parsing HTML.
type TakeMetadata struct {
	TakeName      string   `json:"takeName"`
	Duration      string   `json:"duration"`
	FrameCount    int      `json:"frameCount"`
	Redraws       int      `json:"redraws"`
	TotalFrames   int      `json:"totalFrames"`
	Timestamp     string   `json:"timestamp"`
	Success       bool     `json:"success"`
	Cancelled     bool     `json:"cancelled"`
	Regressed     bool     `json:"regressed"`
	MaxDifference *float64 `json:"maxDifference,omitempty"`
	ReportType    string   `json:"reportType"`
}

// DashboardEntry is one run of a take.
type DashboardEntry struct {
	TakeName    string
	RunAt       time.Time
	Success     bool
	Cancelled   bool
	Regressed   bool // film differs from the baseline
	FrameCount  int  // filmed stills
	Redraws     int
	TotalFrames int
	Duration    string
	FilmDiff    string // largest film difference, empty when not compared
	Link        string // report path relative to the dashboard
}

// Status is PASSED, REGRESSED, FAILED or CANCELLED.
func (e DashboardEntry) Status() string {
	return takeStatus(e.Success, e.Cancelled, e.Regressed)
}

// Passed reports whether the run finished and its film, if compared,
// matched the baseline.
func (e DashboardEntry) Passed() bool {
	return e.Success && !e.Cancelled && !e.Regressed
}

// TakeHistory is every run of one take, newest first.
type TakeHistory struct {
	Name string
	Runs []DashboardEntry
}

// Streak counts the passing runs since the last failure.
func (h TakeHistory) Streak() int {
	n := 0
	for _, run := range h.Runs {
		if !run.Passed() {
			break
		}
		n++
	}
	return n
}

// GenerateDashboard writes <baseDir>/index.html with the history of every
// take whose reports are laid out by ReportDir under baseDir.
func GenerateDashboard(baseDir string) error {
	entries, err := scanTakeReports(baseDir)
	if err != nil {
		return fmt.Errorf("failed to scan take reports: %w", err)
	}
	takes := groupByTake(entries)

	dashboardPath := filepath.Join(baseDir, "index.html")
	file, err := os.Create(dashboardPath)
	if err != nil {
		return fmt.Errorf("failed to create dashboard file: %w", err)
	}
	defer file.Close()

	data := struct {
		Takes       []TakeHistory
		Runs        int
		GeneratedAt time.Time
	}{takes, len(entries), time.Now()}
	if err := template.Must(template.New("dashboard").Parse(dashboardTemplate)).Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute dashboard template: %w", err)
	}

	log.Printf("📊 Dashboard generated: %s (%d takes, %d runs)", dashboardPath, len(takes), len(entries))
	return nil
}

// scanTakeReports lists <take>/<stamp>/index.html reports, newest first.
// Directories that do not follow the layout are skipped.
func scanTakeReports(baseDir string) ([]DashboardEntry, error) {
	paths, err := filepath.Glob(filepath.Join(baseDir, "*", "*", "index.html"))
	if err != nil {
		return nil, err
	}

	var entries []DashboardEntry
	for _, path := range paths {
		runDir := filepath.Dir(path)
		runAt, err := time.Parse(reportStampLayout, filepath.Base(runDir))
		if err != nil {
			continue
		}
		entry, err := extractReportInfo(path)
		if err != nil {
			return nil, err
		}
		if entry.TakeName == "" {
			entry.TakeName = filepath.Base(filepath.Dir(runDir))
		}
		entry.RunAt = runAt
		if rel, err := filepath.Rel(baseDir, path); err == nil {
			entry.Link = filepath.ToSlash(rel)
		}
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RunAt.After(entries[j].RunAt)
	})
	return entries, nil
}

// groupByTake keeps the newest-first order inside each take and orders
// takes by name.
func groupByTake(entries []DashboardEntry) []TakeHistory {
	index := map[string]int{}
	var takes []TakeHistory
	for _, e := range entries {
		i, ok := index[e.TakeName]
		if !ok {
			i = len(takes)
			index[e.TakeName] = i
			takes = append(takes, TakeHistory{Name: e.TakeName})
		}
		takes[i].Runs = append(takes[i].Runs, e)
	}
	sort.Slice(takes, func(i, j int) bool { return takes[i].Name < takes[j].Name })
	return takes
}

// extractReportInfo reads the metadata of a report. A report without
// metadata yields an empty entry.
func extractReportInfo(htmlPath string) (*DashboardEntry, error) {
	content, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, err
	}
	entry, err := extractFromJSON(string(content))
	if errors.Is(err, errNoMetadata) {
		return &DashboardEntry{}, nil
	}
	return entry, err
}

var errNoMetadata = errors.New("no take metadata")

func extractFromJSON(htmlContent string) (*DashboardEntry, error) {
	_, rest, found := strings.Cut(htmlContent, metadataOpenTag)
	if !found {
		return nil, errNoMetadata
	}
	raw, _, found := strings.Cut(rest, "</script>")
	if !found {
		return nil, fmt.Errorf("unterminated take metadata")
	}

	var meta TakeMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse take metadata: %w", err)
	}

	entry := &DashboardEntry{
		TakeName:    meta.TakeName,
		Success:     meta.Success,
		Cancelled:   meta.Cancelled,
		Regressed:   meta.Regressed,
		FrameCount:  meta.FrameCount,
		Redraws:     meta.Redraws,
		TotalFrames: meta.TotalFrames,
		Duration:    meta.Duration,
	}
	if meta.MaxDifference != nil {
		entry.FilmDiff = fmt.Sprintf("%.2f%%", *meta.MaxDifference)
	}
	return entry, nil
}
