package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/relation"
)

// surveyPrompter reads interactive parent selections from the terminal.
type surveyPrompter struct {
	out     io.Writer
	noColor bool
}

// SelectParents shows the ranked candidates on the first prompt and the
// rejection reason on retries, then reads a raw selection expression.
func (p *surveyPrompter) SelectParents(candidates []relation.Candidate, retryMsg string) (string, error) {
	if retryMsg == "" {
		fmt.Fprintln(p.out)
		ui.Header(p.out, "Candidate parents", p.noColor)
		renderCandidates(p.out, candidates, p.noColor)
		fmt.Fprintln(p.out)
	} else {
		fmt.Fprint(p.out, ui.Warning(retryMsg, nil, p.noColor))
	}

	var answer string
	prompt := &survey.Input{
		Message: fmt.Sprintf("Parents to link [1-%d, e.g. 1,3 or 1-2, all, none]:", len(candidates)),
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// renderCandidates writes the ranked suggestions as a numbered list.
func renderCandidates(w io.Writer, candidates []relation.Candidate, noColor bool) {
	list := ui.NewCandidateList(w, noColor)
	for _, c := range candidates {
		list.Add(ui.CandidateRow{
			Tier:   c.Tier.String(),
			ID:     c.Entry.ID,
			Name:   c.Entry.Property("$name"),
			Reason: c.Reason,
		})
	}
	list.Render()
}

// renderLinkReport summarizes a confirm-and-link run. Failures get the full
// error box; the caller still returns the wrapped error for the exit code.
func renderLinkReport(w io.Writer, datasetID string, report relation.LinkReport, noColor bool) {
	successColor := color.New(color.FgGreen, color.Bold)
	if noColor {
		successColor.DisableColor()
	}

	switch report.State {
	case relation.StateLinked:
		successColor.Fprintf(w, "✓ Linked %d parent(s) to %s\n", len(report.Linked), datasetID)
		for _, id := range report.Linked {
			fmt.Fprintf(w, "  %s\n", id)
		}
	case relation.StateSkipped:
		fmt.Fprint(w, ui.Info("No parents linked.", noColor))
	case relation.StatePartiallyLinked, relation.StateLinkFailed:
		if len(report.Linked) > 0 {
			successColor.Fprintf(w, "✓ Linked: %s\n", strings.Join(report.Linked, ", "))
		}
		fmt.Fprint(w, ui.LinkFailedError(datasetID, report.FailedID, noColor))
		if len(report.NotAttempted) > 0 {
			fmt.Fprintf(w, "Not attempted: %s\n", strings.Join(report.NotAttempted, ", "))
		}
	}
}
