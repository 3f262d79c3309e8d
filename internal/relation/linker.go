package relation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gobis-cli/gobis/internal/openbis"
)

// FlowState tracks one upload-with-link flow. Linked, PartiallyLinked,
// LinkFailed, and Skipped are terminal.
type FlowState string

const (
	StateUnlinked          FlowState = "UNLINKED"
	StateMetadataExtracted FlowState = "METADATA_EXTRACTED"
	StateCandidatesScored  FlowState = "CANDIDATES_SCORED"
	StateUserConfirmed     FlowState = "USER_CONFIRMED"
	StateAutoConfirmed     FlowState = "AUTO_CONFIRMED"
	StateSkipped           FlowState = "SKIPPED"
	StateLinked            FlowState = "LINKED"
	StatePartiallyLinked   FlowState = "PARTIALLY_LINKED"
	StateLinkFailed        FlowState = "LINK_FAILED"
)

var flowTransitions = map[FlowState][]FlowState{
	StateUnlinked:          {StateMetadataExtracted},
	StateMetadataExtracted: {StateCandidatesScored},
	StateCandidatesScored:  {StateUserConfirmed, StateAutoConfirmed, StateSkipped},
	StateUserConfirmed:     {StateLinked, StatePartiallyLinked, StateLinkFailed},
	StateAutoConfirmed:     {StateLinked, StatePartiallyLinked, StateLinkFailed},
}

// Flow is the state machine for one upload-with-link run.
type Flow struct {
	state FlowState
}

// NewFlow starts a flow in the unlinked state.
func NewFlow() *Flow { return &Flow{state: StateUnlinked} }

// State returns the current state.
func (f *Flow) State() FlowState { return f.state }

// To advances the flow, rejecting transitions the machine does not define.
func (f *Flow) To(next FlowState) error {
	for _, allowed := range flowTransitions[f.state] {
		if next == allowed {
			f.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal flow transition %s -> %s", f.state, next)
}

// Terminal reports whether the flow can advance no further.
func (f *Flow) Terminal() bool { return len(flowTransitions[f.state]) == 0 }

// Mode selects how candidates are confirmed before linking.
type Mode struct {
	kind string
	ids  []string
}

// Interactive presents the ranked list and reads a selection.
func Interactive() Mode { return Mode{kind: "interactive"} }

// AutoHigh links every HIGH candidate unprompted and ignores the rest.
func AutoHigh() Mode { return Mode{kind: "auto-high"} }

// DryRun performs matching and reports would-be links without writing.
func DryRun() Mode { return Mode{kind: "dry-run"} }

// Manual bypasses matching and links the given ids directly.
func Manual(ids ...string) Mode { return Mode{kind: "manual", ids: ids} }

func (m Mode) String() string { return m.kind }

// Prompter supplies the interactive selection input. retryMsg carries the
// reason the previous input was rejected, or "" on the first prompt.
type Prompter interface {
	SelectParents(candidates []Candidate, retryMsg string) (string, error)
}

// LinkReport describes the outcome of one confirm-and-link run. Links are
// written one parent at a time and the batch stops at the first failure, so
// Linked, FailedID, and NotAttempted partition the selection.
type LinkReport struct {
	State        FlowState
	Selected     []Candidate
	Linked       []string
	FailedID     string
	NotAttempted []string
	Err          error
}

// Linker confirms candidate selections and writes the links.
type Linker struct {
	gw       openbis.Gateway
	prompter Prompter
	log      *zap.Logger
}

// LinkerOption configures a Linker.
type LinkerOption func(*Linker)

// WithPrompter supplies the interactive selection source. Required for
// Interactive mode only.
func WithPrompter(p Prompter) LinkerOption {
	return func(l *Linker) { l.prompter = p }
}

// WithLinkerLogger routes link debug logging.
func WithLinkerLogger(log *zap.Logger) LinkerOption {
	return func(l *Linker) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLinker creates a linker writing through gw.
func NewLinker(gw openbis.Gateway, opts ...LinkerOption) *Linker {
	l := &Linker{gw: gw, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ConfirmAndLink resolves which of the ranked candidates to link under the
// given mode and issues the writes for datasetID. flow may be nil, in which
// case an internal flow already advanced to the scored state is used. The
// returned error is nil when the run ends Linked or Skipped; link failures
// are returned and also detailed in the report.
func (l *Linker) ConfirmAndLink(ctx context.Context, flow *Flow, datasetID string, candidates []Candidate, mode Mode) (LinkReport, error) {
	if flow == nil {
		flow = &Flow{state: StateCandidatesScored}
	}

	var parentIDs []string
	confirmed := StateUserConfirmed

	switch mode.kind {
	case "manual":
		parentIDs = mode.ids
	case "auto-high":
		confirmed = StateAutoConfirmed
		for _, c := range candidates {
			if c.Tier == TierHigh {
				parentIDs = append(parentIDs, c.Entry.ID)
			}
		}
	case "dry-run":
		report := LinkReport{State: StateSkipped, Selected: candidates}
		if err := flow.To(StateSkipped); err != nil {
			return report, err
		}
		return report, nil
	default:
		selected, err := l.selectInteractively(candidates)
		if err != nil {
			return LinkReport{State: flow.State()}, err
		}
		for _, c := range selected {
			parentIDs = append(parentIDs, c.Entry.ID)
		}
	}

	if len(parentIDs) == 0 {
		if err := flow.To(StateSkipped); err != nil {
			return LinkReport{State: flow.State()}, err
		}
		return LinkReport{State: StateSkipped}, nil
	}
	if err := flow.To(confirmed); err != nil {
		return LinkReport{State: flow.State()}, err
	}

	report := l.writeLinks(ctx, datasetID, parentIDs)
	if err := flow.To(report.State); err != nil {
		return report, err
	}
	return report, report.Err
}

// selectInteractively prompts until the input parses. A SelectionError
// re-prompts with its reason; any other prompter error aborts the selection.
func (l *Linker) selectInteractively(candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if l.prompter == nil {
		return nil, fmt.Errorf("interactive linking requires a prompter")
	}

	retryMsg := ""
	for {
		raw, err := l.prompter.SelectParents(candidates, retryMsg)
		if err != nil {
			return nil, err
		}
		indices, err := ParseSelection(raw, len(candidates))
		if err != nil {
			retryMsg = err.Error()
			continue
		}

		selected := make([]Candidate, 0, len(indices))
		for _, i := range indices {
			selected = append(selected, candidates[i])
		}
		return selected, nil
	}
}

// writeLinks links the parents one id at a time, stopping at the first
// failure. A selection cancelled before this point never reaches the server;
// once a write is issued it is awaited to completion.
func (l *Linker) writeLinks(ctx context.Context, datasetID string, parentIDs []string) LinkReport {
	report := LinkReport{}
	for i, pid := range parentIDs {
		if err := ctx.Err(); err != nil {
			report.NotAttempted = parentIDs[i:]
			report.Err = err
			break
		}
		if err := l.gw.LinkParents(ctx, datasetID, []string{pid}); err != nil {
			l.log.Debug("link write failed",
				zap.String("dataset", datasetID),
				zap.String("parent", pid),
				zap.Error(err))
			report.FailedID = pid
			report.NotAttempted = parentIDs[i+1:]
			report.Err = err
			break
		}
		l.log.Debug("link written",
			zap.String("dataset", datasetID),
			zap.String("parent", pid))
		report.Linked = append(report.Linked, pid)
	}

	switch {
	case report.Err == nil:
		report.State = StateLinked
	case len(report.Linked) > 0:
		report.State = StatePartiallyLinked
	default:
		report.State = StateLinkFailed
	}
	return report
}
