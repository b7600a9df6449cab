// Package output renders deployment progress and results for the terminal.
//
// Everything the user reads goes through a [Printer]. Diagnostic logging is
// separate and lives in package logging.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"arpdeploy/internal/ledger"
	"arpdeploy/internal/sequencer"
)

// Printer writes styled output to a writer.
type Printer struct {
	out    io.Writer
	styles styles
}

type styles struct {
	header  lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	banner  lipgloss.Style
	cell    lipgloss.Style
	head    lipgloss.Style
	border  lipgloss.Style
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Colors are only
// emitted when w is a terminal.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{out: w, styles: newStyles(lipgloss.NewRenderer(w), true)}
}

// SetColor enables or disables styling.
func (p *Printer) SetColor(enabled bool) {
	p.styles = newStyles(lipgloss.NewRenderer(p.out), enabled)
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		plain := r.NewStyle()
		return styles{
			header:  plain,
			step:    plain,
			success: plain,
			failure: plain,
			muted:   plain,
			banner:  plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			cell:    plain.Padding(0, 1),
			head:    plain.Padding(0, 1),
			border:  plain,
		}
	}
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		step:    r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		banner:  r.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		head:    r.NewStyle().Bold(true).Padding(0, 1),
		border:  r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.out, s)
}

// Info prints an unstyled line.
func (p *Printer) Info(format string, args ...any) {
	p.println(fmt.Sprintf(format, args...))
}

// Warn prints a highlighted line.
func (p *Printer) Warn(format string, args ...any) {
	p.println(p.styles.failure.Render("! " + fmt.Sprintf(format, args...)))
}

// DeployHeader announces a run.
func (p *Printer) DeployHeader(network string, chainID uint64, from string, steps []string) {
	lines := []string{
		p.styles.header.Render("ARP Deploy: " + network),
		fmt.Sprintf("Chain: %d", chainID),
		"From:  " + from,
		"Steps: " + strings.Join(steps, " → "),
	}
	p.println(p.styles.banner.Render(strings.Join(lines, "\n")))
	p.println("")
}

// StepStart prints the progress line for a step. stepIndex is 1-based, as
// passed to a sequencer.ProgressCallback.
func (p *Printer) StepStart(stepIndex, totalSteps int, stepID string) {
	p.println(p.styles.step.Render(fmt.Sprintf("[%d/%d] %s", stepIndex, totalSteps, stepID)))
}

// StepDeployed prints the address of a deployed contract.
func (p *Printer) StepDeployed(h sequencer.Handle) {
	p.println(p.styles.success.Render("  ✓ "+h.Address.Hex()) + p.styles.muted.Render(" tx "+h.TxHash.Hex()))
}

// DeployComplete prints the success banner and summary table.
func (p *Printer) DeployComplete(res *sequencer.Result, duration time.Duration) {
	p.println("")
	lines := []string{
		p.styles.success.Render("✓ DEPLOYMENT COMPLETE"),
		"Network:  " + res.Network,
		fmt.Sprintf("Deployed: %d/%d", len(res.Handles), res.Total),
		"Duration: " + duration.Round(time.Millisecond).String(),
	}
	p.println(p.styles.banner.Render(strings.Join(lines, "\n")))
	if len(res.Handles) > 0 {
		p.println(p.handleTable(res.Handles))
	}
}

// DeployFailed prints the failure banner and whatever was deployed before the
// failing step.
func (p *Printer) DeployFailed(res *sequencer.Result, stepErr *sequencer.StepError, duration time.Duration) {
	p.println("")
	lines := []string{p.styles.failure.Render("✗ DEPLOYMENT FAILED")}
	if res != nil {
		lines = append(lines, "Network:  "+res.Network)
	}
	if stepErr != nil {
		lines = append(lines,
			fmt.Sprintf("Step:     %d (%s)", stepErr.Index+1, stepErr.StepID),
			"Error:    "+stepErr.Err.Error(),
		)
	}
	lines = append(lines, "Duration: "+duration.Round(time.Millisecond).String())
	p.println(p.styles.banner.Render(strings.Join(lines, "\n")))

	if res != nil && len(res.Handles) > 0 {
		p.println(p.handleTable(res.Handles))
	}
	if res != nil {
		for i := res.Current + 1; i < res.Total; i++ {
			p.println(p.styles.muted.Render(fmt.Sprintf("○ step %d (skipped)", i+1)))
		}
	}
}

// DeployNoop reports a run against a network with no profile.
func (p *Printer) DeployNoop(network string) {
	p.println(p.styles.muted.Render(fmt.Sprintf("No deployment profile for network %q; nothing to deploy.", network)))
}

func (p *Printer) handleTable(handles []sequencer.Handle) string {
	rows := make([][]string, 0, len(handles))
	for i, h := range handles {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1), h.StepID, h.Address.Hex(), h.TxHash.Hex(),
		})
	}
	return p.table([]string{"#", "Step", "Address", "Tx"}, rows)
}

// Plan prints the resolved steps of a dry run.
func (p *Printer) Plan(network string, steps []sequencer.PlannedStep) {
	p.println(p.styles.header.Render(fmt.Sprintf("Plan for %s (%d steps)", network, len(steps))))
	if len(steps) == 0 {
		p.println(p.styles.muted.Render("nothing to deploy"))
		return
	}
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		args := strings.Join(s.Args, "\n")
		if args == "" {
			args = "-"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", s.Index), s.ID, s.Contract + s.Signature, args})
	}
	p.println(p.table([]string{"#", "Step", "Contract", "Constructor args"}, rows))
}

// NetworkRow is one line of the networks listing.
type NetworkRow struct {
	Name     string
	Steps    []string
	Endpoint string
	ChainID  uint64
	DevKeys  bool
}

// Networks prints the configured networks.
func (p *Printer) Networks(rows []NetworkRow) {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		endpoint := r.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}
		chainID := "any"
		if r.ChainID != 0 {
			chainID = fmt.Sprintf("%d", r.ChainID)
		}
		devKeys := "no"
		if r.DevKeys {
			devKeys = "yes"
		}
		cells = append(cells, []string{r.Name, strings.Join(r.Steps, " → "), endpoint, chainID, devKeys})
	}
	p.println(p.table([]string{"Network", "Steps", "RPC", "Chain", "Dev keys"}, cells))
}

// History prints recorded runs, oldest first.
func (p *Printer) History(runs []ledger.Run) {
	if len(runs) == 0 {
		p.println(p.styles.muted.Render("no recorded runs"))
		return
	}
	for _, run := range runs {
		state := string(run.State)
		switch run.State {
		case ledger.StateComplete:
			state = p.styles.success.Render(state)
		case ledger.StateFailed:
			state = p.styles.failure.Render(state)
		}
		p.println(fmt.Sprintf("%s  %s  %s  %s",
			p.styles.step.Render(run.ID), run.Network,
			run.StartedAt.UTC().Format(time.RFC3339), state))
		if run.Error != "" {
			p.println(p.styles.muted.Render("  " + run.Error))
		}
		if len(run.Contracts) > 0 {
			rows := make([][]string, 0, len(run.Contracts))
			for _, c := range run.Contracts {
				rows = append(rows, []string{c.Step, c.Address, c.TxHash})
			}
			p.println(p.table([]string{"Step", "Address", "Tx"}, rows))
		}
	}
}

func (p *Printer) table(headers []string, rows [][]string) string {
	s := p.styles
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.head
			}
			return s.cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
