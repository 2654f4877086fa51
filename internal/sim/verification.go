package sim

import (
	"fmt"

	"github.com/okian/dojo/internal/adapters/repository"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/synth"
)

// expectedActions lists the action types each built-in scenario must
// produce at least once.
var expectedActions = map[string][]model.ActionType{ //nolint:gochecknoglobals // lookup table
	"punch": {model.ActionPunch},
	"kick":  {model.ActionKick},
	"block": {model.ActionBlock},
	"dodge": {model.ActionDodge},
	"bout":  {model.ActionPunch, model.ActionKick, model.ActionBlock, model.ActionDodge},
}

// quietScenarios must produce no actions at all.
var quietScenarios = map[string]bool{"stance": true} //nolint:gochecknoglobals // lookup table

func tally(r *Result, records []repository.Record) {
	r.Actions = make(map[model.ActionType]int)
	r.KeyFrames = make(map[model.KeyFrameType]int)
	for _, rec := range records {
		switch rec.Kind {
		case session.KindAction:
			r.Actions[rec.Action.Type]++
		case session.KindKeyFrame:
			r.KeyFrames[rec.KeyFrame.Type]++
		case session.KindDiagnostic:
			r.Diagnostics++
		}
	}
}

// verify checks one replay against its scenario and returns a warning per
// disagreement.
func verify(sc synth.Scenario, r Result, records []repository.Record) []string {
	var warnings []string

	if got, want := r.Report.Analysis.TotalFrames, len(sc.Frames); got != want {
		warnings = append(warnings, fmt.Sprintf("report counts %d frames, scenario has %d", got, want))
	}
	if r.Accepted+r.Duplicates != r.Frames {
		warnings = append(warnings, fmt.Sprintf("%d frames sent but %d accepted and %d duplicate",
			r.Frames, r.Accepted, r.Duplicates))
	}

	for i := 1; i < len(records); i++ {
		if records[i].Seq != records[i-1].Seq+1 {
			warnings = append(warnings, fmt.Sprintf("event log gap between seq %d and %d",
				records[i-1].Seq, records[i].Seq))
			break
		}
	}

	for _, t := range expectedActions[sc.Name] {
		if r.Actions[t] == 0 {
			warnings = append(warnings, fmt.Sprintf("no %s detected", t))
		}
	}
	if quietScenarios[sc.Name] {
		for t, n := range r.Actions {
			warnings = append(warnings, fmt.Sprintf("unexpected %d %s in a quiet scenario", n, t))
		}
	}
	if r.Diagnostics > 0 {
		warnings = append(warnings, fmt.Sprintf("%d diagnostics on synthetic frames", r.Diagnostics))
	}
	return warnings
}
