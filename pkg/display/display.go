// Package display renders command results for the terminal: styled
// tables and lists on a capable tty, plain text everywhere else, and
// JSON on request.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/popctl/pkg/configs"
	"github.com/arthur-debert/popctl/pkg/diff"
	"github.com/arthur-debert/popctl/pkg/filesystem"
	"github.com/arthur-debert/popctl/pkg/style"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Diff entry markers.
const (
	MarkerNew     = "[+]"
	MarkerMissing = "[-]"
	MarkerExtra   = "[x]"
)

// Renderer formats popctl results for one output format.
type Renderer struct {
	format Format
}

// NewRenderer creates a renderer, resolving FormatAuto against stdout.
func NewRenderer(format Format) *Renderer {
	if format == FormatAuto {
		format = DetectFormat(os.Stdout)
	}
	return &Renderer{format: format}
}

// Format returns the resolved output format.
func (r *Renderer) Format() Format { return r.format }

func (r *Renderer) styled() bool { return r.format == FormatTerminal }

// RenderJSON serializes any result as indented JSON.
func (r *Renderer) RenderJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(data)
}

// RenderPackages renders a scanned package table.
func (r *Renderer) RenderPackages(packages []types.ScannedPackage) string {
	if len(packages) == 0 {
		return r.muted("No packages found.")
	}

	data := pterm.TableData{{"NAME", "SOURCE", "VERSION", "STATUS"}}
	for _, pkg := range packages {
		name := pkg.Name
		source := pkg.Source.String()
		if r.styled() {
			source = style.ForSource(pkg.Source).Render(source)
		}
		data = append(data, []string{name, source, pkg.Version, string(pkg.Status)})
	}
	return r.table(data)
}

// RenderDiff renders the three diff categories with their markers.
// NEW entries are reported as untracked, never as pending work.
func (r *Renderer) RenderDiff(result diff.Result) string {
	if result.InSync() {
		return r.success("System is in sync with the manifest.")
	}

	var b strings.Builder

	if len(result.Missing) > 0 {
		b.WriteString(r.header(fmt.Sprintf("Missing (%d): in keep set but not installed", len(result.Missing))))
		b.WriteString("\n")
		for _, entry := range result.Missing {
			b.WriteString(r.diffLine(MarkerMissing, "DiffMissing", entry))
		}
		b.WriteString("\n")
	}

	if len(result.Extra) > 0 {
		b.WriteString(r.header(fmt.Sprintf("Extra (%d): in remove set but still installed", len(result.Extra))))
		b.WriteString("\n")
		for _, entry := range result.Extra {
			b.WriteString(r.diffLine(MarkerExtra, "DiffExtra", entry))
		}
		b.WriteString("\n")
	}

	if len(result.New) > 0 {
		b.WriteString(r.header(fmt.Sprintf("New (%d): installed but untracked", len(result.New))))
		b.WriteString("\n")
		for _, entry := range result.New {
			b.WriteString(r.diffLine(MarkerNew, "DiffNew", entry))
		}
		b.WriteString(r.muted("  Run 'popctl advisor classify' to triage untracked packages.") + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) diffLine(marker, styleName string, entry diff.Entry) string {
	if r.styled() {
		marker = style.Get(styleName).Render(marker)
	}
	line := fmt.Sprintf("  %s %s (%s)", marker, entry.Name, entry.Source)
	if entry.Description != "" {
		line += " " + r.mutedInline("- "+entry.Description)
	}
	return line + "\n"
}

// RenderActions renders a planned action list.
func (r *Renderer) RenderActions(actions []types.Action) string {
	if len(actions) == 0 {
		return r.muted("Nothing to do.")
	}

	var b strings.Builder
	b.WriteString(r.header(fmt.Sprintf("Planned actions (%d):", len(actions))) + "\n")
	for _, action := range actions {
		verb := string(action.Kind)
		if r.styled() {
			switch action.Kind {
			case types.ActionInstall:
				verb = style.Get("Success").Render(verb)
			default:
				verb = style.Get("Error").Render(verb)
			}
		}
		b.WriteString(fmt.Sprintf("  %-20s %s (%s)\n", verb, action.Package, action.Source))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderResults renders execution outcomes, failures last.
func (r *Renderer) RenderResults(results []types.ActionResult) string {
	if len(results) == 0 {
		return r.muted("No actions were executed.")
	}

	var b strings.Builder
	failed := 0
	for _, result := range results {
		if result.Success {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				r.indicator(true), result.Action.Kind, result.Action.Package))
		} else {
			failed++
		}
	}
	for _, result := range results {
		if !result.Success {
			b.WriteString(fmt.Sprintf("  %s %s %s: %v\n",
				r.indicator(false), result.Action.Kind, result.Action.Package, result.Error))
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", len(results)-failed, failed)
	if failed > 0 {
		b.WriteString(r.errorLine(summary))
	} else {
		b.WriteString(r.success(summary))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderHistory renders history entries as a table, newest first.
func (r *Renderer) RenderHistory(entries []types.HistoryEntry) string {
	if len(entries) == 0 {
		return r.muted("No history yet.")
	}

	data := pterm.TableData{{"ID", "WHEN", "KIND", "PACKAGES", "UNDOABLE"}}
	for _, entry := range entries {
		names := make([]string, 0, len(entry.Items))
		for _, item := range entry.Items {
			names = append(names, item.Name)
		}
		packages := strings.Join(names, ", ")
		if len(packages) > 50 {
			packages = packages[:49] + "..."
		}

		undoable := "no"
		if entry.Reversible {
			undoable = "yes"
		}
		data = append(data, []string{entry.ID, entry.Timestamp, string(entry.Kind), packages, undoable})
	}
	return r.table(data)
}

// RenderOrphans renders the filesystem scan report.
func (r *Renderer) RenderOrphans(orphans []filesystem.ScannedPath, totalSize int64) string {
	if len(orphans) == 0 {
		return r.success("No orphaned paths found.")
	}

	data := pterm.TableData{{"PATH", "TYPE", "SIZE", "CONFIDENCE", "REASON"}}
	for _, orphan := range orphans {
		data = append(data, []string{
			orphan.Path,
			string(orphan.Type),
			humanSize(orphan.SizeBytes),
			fmt.Sprintf("%.0f%%", orphan.Confidence*100),
			string(orphan.Reason),
		})
	}

	var b strings.Builder
	b.WriteString(r.table(data))
	b.WriteString("\n\n")
	b.WriteString(r.muted(fmt.Sprintf("%d orphaned paths, %s total. Add paths to [filesystem.remove] in the manifest, then run 'popctl fs clean'.",
		len(orphans), humanSize(totalSize))))
	return b.String()
}

// RenderDeleteResults renders filesystem cleanup outcomes.
func (r *Renderer) RenderDeleteResults(results []filesystem.DeleteResult) string {
	if len(results) == 0 {
		return r.muted("Nothing was deleted.")
	}

	var b strings.Builder
	for _, result := range results {
		switch {
		case result.DryRun:
			b.WriteString(fmt.Sprintf("  %s would delete %s\n", r.indicator(true), result.Path))
		case result.Success:
			b.WriteString(fmt.Sprintf("  %s deleted %s\n", r.indicator(true), result.Path))
		default:
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", r.indicator(false), result.Path, result.Error))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderConfigOrphans renders the config scan report.
func (r *Renderer) RenderConfigOrphans(orphans []configs.ScannedConfig, totalSize int64) string {
	if len(orphans) == 0 {
		return r.success("No orphaned configs found.")
	}

	data := pterm.TableData{{"PATH", "TYPE", "SIZE", "CONFIDENCE", "REASON"}}
	for _, orphan := range orphans {
		data = append(data, []string{
			orphan.Path,
			string(orphan.Type),
			humanSize(orphan.SizeBytes),
			fmt.Sprintf("%.0f%%", orphan.Confidence*100),
			string(orphan.Reason),
		})
	}

	var b strings.Builder
	b.WriteString(r.table(data))
	b.WriteString("\n\n")
	b.WriteString(r.muted(fmt.Sprintf("%d orphaned configs, %s total. Add paths to [configs.remove] in the manifest, then run 'popctl config clean'.",
		len(orphans), humanSize(totalSize))))
	return b.String()
}

// RenderConfigDeleteResults renders config cleanup outcomes, naming
// the backup taken for each deletion.
func (r *Renderer) RenderConfigDeleteResults(results []configs.DeleteResult) string {
	if len(results) == 0 {
		return r.muted("Nothing was deleted.")
	}

	var b strings.Builder
	for _, result := range results {
		switch {
		case result.DryRun:
			b.WriteString(fmt.Sprintf("  %s would delete %s\n", r.indicator(true), result.Path))
		case result.Success:
			line := fmt.Sprintf("  %s deleted %s", r.indicator(true), result.Path)
			if result.BackupPath != "" {
				line += " " + r.mutedInline("(backup: "+result.BackupPath+")")
			}
			b.WriteString(line + "\n")
		default:
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", r.indicator(false), result.Path, result.Error))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderWarnings renders non-fatal pipeline warnings.
func (r *Renderer) RenderWarnings(warnings []string) string {
	var b strings.Builder
	for _, warning := range warnings {
		line := "  ! " + warning
		if r.styled() {
			line = "  " + style.WarningIndicator() + " " + warning
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) table(data pterm.TableData) string {
	if r.styled() {
		rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}

	// Plain fallback: aligned columns, no box drawing
	widths := make([]int, len(data[0]))
	for _, row := range data {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	var b strings.Builder
	for _, row := range data {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) header(s string) string {
	if r.styled() {
		return style.Get("Header").Render(s)
	}
	return s
}

func (r *Renderer) muted(s string) string {
	if r.styled() {
		return style.Get("Muted").Render(s)
	}
	return s
}

func (r *Renderer) mutedInline(s string) string { return r.muted(s) }

func (r *Renderer) success(s string) string {
	if r.styled() {
		return style.Get("Success").Render(s)
	}
	return s
}

func (r *Renderer) errorLine(s string) string {
	if r.styled() {
		return style.Get("Error").Render(s)
	}
	return s
}

func (r *Renderer) indicator(ok bool) string {
	if r.styled() {
		if ok {
			return style.SuccessIndicator()
		}
		return style.ErrorIndicator()
	}
	if ok {
		return "OK"
	}
	return "FAIL"
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
