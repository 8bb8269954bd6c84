// Package report renders completed study designs into reviewer-facing
// artifacts: an HTML synopsis and an XLSX design workbook.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bedesign/domain/core"
	"bedesign/domain/project"
	"bedesign/internal/config"
	"bedesign/internal/errors"
	"bedesign/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
)

// Renderer writes report artifacts to the local filesystem
type Renderer struct {
	outputDir string
}

// NewRenderer creates a filesystem renderer for report artifacts
func NewRenderer(cfg config.ReportConfig) *Renderer {
	return &Renderer{outputDir: cfg.OutputDir}
}

var _ ports.ReportRendererPort = (*Renderer)(nil)

// Render produces the synopsis and workbook for a completed project.
// The caller guarantees Design and Verdict are populated.
func (r *Renderer) Render(ctx context.Context, p *project.Project) (*project.ReportArtifact, error) {
	if p.Design == nil || p.Verdict == nil {
		return nil, errors.New(errors.CodeValidationError, "project has no design to report")
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create reports directory")
	}

	htmlBytes := renderSynopsisHTML(p)
	synopsisPath := filepath.Join(r.outputDir, fmt.Sprintf("%s_synopsis.html", p.ID))
	if err := os.WriteFile(synopsisPath, htmlBytes, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write synopsis")
	}

	workbookPath := filepath.Join(r.outputDir, fmt.Sprintf("%s_design.xlsx", p.ID))
	if err := writeWorkbook(workbookPath, p); err != nil {
		return nil, errors.Wrap(err, "failed to write design workbook")
	}

	return &project.ReportArtifact{
		ID:           core.ArtifactID(core.NewID()),
		SynopsisPath: synopsisPath,
		WorkbookPath: workbookPath,
		Checksum:     core.NewHash(htmlBytes),
		GeneratedAt:  core.Now(),
	}, nil
}

func renderSynopsisHTML(p *project.Project) []byte {
	md := buildSynopsisMarkdown(p)

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("Bioequivalence Study Synopsis: %s", p.Drug.INNEn),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), mdParser, renderer)
}

func buildSynopsisMarkdown(p *project.Project) string {
	d := p.Design
	v := p.Verdict

	var b strings.Builder
	fmt.Fprintf(&b, "# Bioequivalence Study Synopsis\n\n")
	fmt.Fprintf(&b, "## Investigational Product\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| INN | %s |\n", p.Drug.INNEn)
	if p.Drug.INNRu != "" {
		fmt.Fprintf(&b, "| INN (localized) | %s |\n", p.Drug.INNRu)
	}
	fmt.Fprintf(&b, "| Dosage | %s |\n", p.Drug.Dosage)
	if p.Drug.Form != "" {
		fmt.Fprintf(&b, "| Form | %s |\n", p.Drug.Form)
	}

	fmt.Fprintf(&b, "\n## Study Design\n\n")
	fmt.Fprintf(&b, "| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Design | %s |\n", d.DesignType)
	fmt.Fprintf(&b, "| Randomization | %s |\n", d.RandomizationScheme)
	fmt.Fprintf(&b, "| Sample size per sequence | %d |\n", d.SampleSize)
	fmt.Fprintf(&b, "| Total subjects | %d |\n", d.TotalSubjects)
	fmt.Fprintf(&b, "| Enrollment per sequence (dropout-adjusted) | %d |\n", d.EnrollmentWithDropout)
	fmt.Fprintf(&b, "| Enrollment per sequence (screen-fail-adjusted) | %d |\n", d.EnrollmentWithScreenFail)
	fmt.Fprintf(&b, "| Washout period | %d days |\n", d.WashoutDays)
	fmt.Fprintf(&b, "| CV intra used | %.1f%% |\n", d.CVIntraUsed)
	fmt.Fprintf(&b, "| Delta | %.1f%% |\n", d.Delta)
	fmt.Fprintf(&b, "| Power | %.1f%% |\n", d.Power)
	fmt.Fprintf(&b, "| Alpha | %.3f |\n", d.Alpha)
	fmt.Fprintf(&b, "| Policy version | %s |\n", d.PolicyVersion)

	if d.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Explanation)
	}

	fmt.Fprintf(&b, "\n## Regulatory Assessment (%s)\n\n", v.RuleSetVersion)
	if v.Compliant {
		fmt.Fprintf(&b, "**Overall: compliant.** All acceptance rules passed.\n\n")
	} else {
		fmt.Fprintf(&b, "**Overall: not compliant.** One or more acceptance rules failed.\n\n")
	}
	fmt.Fprintf(&b, "| Rule | Outcome | Detail |\n|---|---|---|\n")
	for _, rule := range v.Rules {
		outcome := "PASS"
		if !rule.Passed {
			outcome = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", rule.RuleID, outcome, rule.Message)
	}
	if len(v.Warnings) > 0 {
		fmt.Fprintf(&b, "\n### Advisory Warnings\n\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	if s := p.SearchSummary; s != nil {
		fmt.Fprintf(&b, "\n## Literature Basis\n\n")
		fmt.Fprintf(&b, "Articles processed: %d, distinct sources cited: %d\n\n", s.ArticlesProcessed, s.DistinctSources)
		if len(s.ParametersFound) > 0 {
			fmt.Fprintf(&b, "| Parameter | Observations |\n|---|---|\n")
			for _, kind := range sortedKeys(s.ParametersFound) {
				fmt.Fprintf(&b, "| %s | %d |\n", kind, s.ParametersFound[kind])
			}
		}
	}

	fmt.Fprintf(&b, "\n---\n\nGenerated %s\n", time.Now().UTC().Format(time.RFC3339))
	return b.String()
}

func writeWorkbook(path string, p *project.Project) error {
	d := p.Design
	v := p.Verdict

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Design"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"Field", "Value"},
		{"INN", p.Drug.INNEn},
		{"Dosage", p.Drug.Dosage},
		{"Design type", string(d.DesignType)},
		{"Randomization", d.RandomizationScheme},
		{"Sample size per sequence", d.SampleSize},
		{"Total subjects", d.TotalSubjects},
		{"Enrollment per sequence with dropout", d.EnrollmentWithDropout},
		{"Enrollment per sequence with screen failures", d.EnrollmentWithScreenFail},
		{"Washout days", d.WashoutDays},
		{"CV intra (%)", d.CVIntraUsed},
		{"Delta (%)", d.Delta},
		{"Power (%)", d.Power},
		{"Alpha", d.Alpha},
		{"Dropout rate (%)", d.DropoutRate},
		{"Screen fail rate (%)", d.ScreenFailRate},
		{"Policy version", d.PolicyVersion},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	const rulesSheet = "Regulatory"
	if _, err := f.NewSheet(rulesSheet); err != nil {
		return err
	}
	header := []interface{}{"Rule", "Passed", "Message"}
	if err := f.SetSheetRow(rulesSheet, "A1", &header); err != nil {
		return err
	}
	for i, rule := range v.Rules {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{string(rule.RuleID), rule.Passed, rule.Message}
		if err := f.SetSheetRow(rulesSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
