package snowcam

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed html_templates/report.html
var takeReportTemplate string

// TakeReport is everything the HTML report shows about one run.
type TakeReport struct {
	TakeName    string            `json:"take_name"`
	Timestamp   string            `json:"timestamp"`
	Duration    time.Duration     `json:"duration"`
	Success     bool              `json:"success"`
	Cancelled   bool              `json:"cancelled"`
	TotalFrames int               `json:"total_frames"`
	Redraws     int               `json:"redraws"`
	Error       string            `json:"error,omitempty"`
	TripReport  string            `json:"trip_report,omitempty"`
	Stages      []StageEntry      `json:"stages"`
	Frames      []FrameEntry      `json:"frames"`
	Actions     []ActionRecord    `json:"actions"`
	Comparison  *FilmComparison   `json:"comparison,omitempty"`
	Metadata    map[string]string `json:"metadata"`

	// FinalFrame, when set, is written as final.ans and shown in the
	// terminal view.
	FinalFrame *image.RGBA `json:"-"`
}

// StageEntry is one row of the stage table.
type StageEntry struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Target   string        `json:"target"`
	Frames   int           `json:"frames"`
	Planned  int           `json:"planned"`
	Duration time.Duration `json:"duration"`
}

// Complete reports whether every planned frame ran.
func (s StageEntry) Complete() bool {
	return s.Frames == s.Planned
}

// FrameEntry is a filmed still with context.
type FrameEntry struct {
	Label       string       `json:"label"`
	Filename    string       `json:"filename"`
	Timestamp   time.Time    `json:"timestamp"`
	Step        int          `json:"step"`
	Description string       `json:"description"`
	DataURL     template.URL `json:"-"`
}

// ActionRecord is a run log entry.
type ActionRecord struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
	Result    string    `json:"result"`
}

// NewTakeReport assembles a report from a run result and the stills an
// Operator filmed into filmDir.
func NewTakeReport(result *StageResult, shots []Shot, filmDir string) TakeReport {
	report := TakeReport{
		TakeName:    result.Name,
		Timestamp:   time.Now().Format("20060102_150405"),
		Duration:    result.Duration,
		Success:     result.Success,
		Cancelled:   result.Cancelled,
		TotalFrames: result.TotalFrames,
		Redraws:     result.Redraws,
		Error:       result.ErrorMessage,
		TripReport:  result.TripReport,
		Metadata:    map[string]string{"renderer": "scene"},
	}

	for _, s := range result.Stages {
		report.Stages = append(report.Stages, StageEntry{
			Index:    s.Index,
			Name:     s.Name,
			Target:   s.Target,
			Frames:   s.Frames,
			Planned:  s.Planned,
			Duration: s.Duration,
		})
	}
	for _, shot := range shots {
		report.Frames = append(report.Frames, FrameEntry{
			Label:       shot.Stage,
			Filename:    filepath.Join(filmDir, shot.Path),
			Timestamp:   shot.Timestamp,
			Step:        shot.Index,
			Description: shot.Caption,
		})
	}
	for _, a := range result.Actions {
		report.Actions = append(report.Actions, ActionRecord{
			Type:      a.Type,
			Timestamp: a.Timestamp,
			Details:   fmt.Sprint(a.Details),
			Result:    fmt.Sprint(a.Result),
		})
	}
	return report
}

// Regressed reports whether the film was compared and did not match its
// baseline.
func (r TakeReport) Regressed() bool {
	return r.Comparison != nil && !r.Comparison.Passed()
}

// reportView is what the template renders.
type reportView struct {
	TakeReport
	Status       string
	Terminal     template.HTML
	TerminalAttr template.HTMLAttr
	Meta         TakeMetadata
}

// HTMLReportGenerator writes take reports.
type HTMLReportGenerator struct {
	outputDir     string
	templateCache map[string]*template.Template
}

func NewHTMLReportGenerator(outputDir string) *HTMLReportGenerator {
	return &HTMLReportGenerator{
		outputDir:     outputDir,
		templateCache: make(map[string]*template.Template),
	}
}

// OutputDir returns the directory the report is written to.
func (g *HTMLReportGenerator) OutputDir() string {
	return g.outputDir
}

// GenerateReport writes index.html (and final.ans when the report has a
// final frame) into the output directory. Stills are embedded as data
// URLs so the report is self-contained.
func (g *HTMLReportGenerator) GenerateReport(report TakeReport) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i := range report.Frames {
		if report.Frames[i].DataURL != "" {
			continue
		}
		dataURL, err := convertImageToDataURL(report.Frames[i].Filename)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", report.Frames[i].Label, err)
		}
		report.Frames[i].DataURL = dataURL
	}

	view := reportView{
		TakeReport: report,
		Status:     takeStatus(report.Success, report.Cancelled, report.Regressed()),
		Meta: TakeMetadata{
			TakeName:    report.TakeName,
			Duration:    report.Duration.Round(time.Millisecond).String(),
			FrameCount:  len(report.Frames),
			Redraws:     report.Redraws,
			TotalFrames: report.TotalFrames,
			Timestamp:   report.Timestamp,
			Success:     report.Success,
			Cancelled:   report.Cancelled,
			Regressed:   report.Regressed(),
			ReportType:  "take",
		},
	}
	if report.Comparison != nil {
		maxDiff := report.Comparison.MaxDifference
		view.Meta.MaxDifference = &maxDiff
	}

	if report.FinalFrame != nil {
		ansiPath := filepath.Join(g.outputDir, "final.ans")
		raw := FrameToANSI(report.FinalFrame, 80)
		header := fmt.Sprintf("# %s final frame after %d redraws\n", report.TakeName, report.Redraws)
		if err := os.WriteFile(ansiPath, []byte(header+raw), 0644); err != nil {
			return fmt.Errorf("failed to write terminal frame: %w", err)
		}
		terminal, err := ConvertANSIToTerminalHTML(ansiPath)
		if err != nil {
			return err
		}
		view.Terminal = terminal
		view.TerminalAttr = template.HTMLAttr(`data-ansi="` + escapeForHTML(raw) + `"`)
	}

	if err := g.generateMainReport(view); err != nil {
		return fmt.Errorf("failed to generate main report: %w", err)
	}
	return nil
}

func (g *HTMLReportGenerator) generateMainReport(view reportView) error {
	tmpl := g.getMainTemplate()

	reportPath := filepath.Join(g.outputDir, "index.html")
	file, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(file, view); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (g *HTMLReportGenerator) getMainTemplate() *template.Template {
	if tmpl, exists := g.templateCache["main"]; exists {
		return tmpl
	}
	tmpl := template.Must(template.New("main").Parse(takeReportTemplate))
	g.templateCache["main"] = tmpl
	return tmpl
}

// takeStatus is CANCELLED, FAILED, REGRESSED (the run finished but its
// film no longer matches the baseline) or PASSED.
func takeStatus(success, cancelled, regressed bool) string {
	switch {
	case cancelled:
		return "CANCELLED"
	case !success:
		return "FAILED"
	case regressed:
		return "REGRESSED"
	default:
		return "PASSED"
	}
}

// ReportDir returns <base>/<take>/<timestamp>, the layout the dashboard
// scans.
func ReportDir(base, take string, at time.Time) string {
	return filepath.Join(base, take, at.Format("20060102_150405"))
}

// convertImageToDataURL reads an image file and encodes it as a data URL.
func convertImageToDataURL(imagePath string) (template.URL, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	var mimeType string
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".gif":
		mimeType = "image/gif"
	default:
		mimeType = "image/png"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
	return template.URL(dataURL), nil
}
