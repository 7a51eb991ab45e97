package orchestrator

import (
	"sort"

	"github.com/hupe1980/insighthub/core"
)

// Plan is the resolved execution of one session.
type Plan struct {
	Requested core.ExecutionMode
	Mode      core.ExecutionMode
	// Decision is set when Mode was chosen by the classifier.
	Decision *Decision
	Waves    [][]core.AgentID
}

// Agents returns the planned agents in dispatch order.
func (p Plan) Agents() []core.AgentID {
	var out []core.AgentID
	for _, w := range p.Waves {
		out = append(out, w...)
	}
	return out
}

// Resolve turns a requested mode into waves over agents. Dynamic (or empty)
// mode is classified from the query first.
//
// Agents without dependencies run first: one per wave in sequential mode,
// all in one wave in parallel mode, quantitative then research then the rest
// by id. Agents declaring dependencies form the final wave.
func Resolve(query string, requested core.ExecutionMode, agents []core.Agent) Plan {
	if requested == "" {
		requested = core.ModeDynamic
	}

	p := Plan{Requested: requested, Mode: requested}

	if requested == core.ModeDynamic {
		d := Classify(query)
		p.Decision = &d
		p.Mode = d.Mode
	}

	var independent, dependent []core.AgentID
	for _, a := range agents {
		if len(dependsOn(a)) > 0 {
			dependent = append(dependent, a.ID())
			continue
		}
		independent = append(independent, a.ID())
	}

	sortAgents(independent)
	sortAgents(dependent)

	switch p.Mode {
	case core.ModeSequential:
		for _, id := range independent {
			p.Waves = append(p.Waves, []core.AgentID{id})
		}
	default:
		if len(independent) > 0 {
			p.Waves = append(p.Waves, independent)
		}
	}

	if len(dependent) > 0 {
		p.Waves = append(p.Waves, dependent)
	}

	return p
}

func dependsOn(a core.Agent) []core.AgentID {
	if d, ok := a.(core.Dependent); ok {
		return d.DependsOn()
	}
	return nil
}

func rank(id core.AgentID) int {
	switch id {
	case core.AgentQuantitative:
		return 0
	case core.AgentResearch:
		return 1
	case core.AgentSynthesis:
		return 2
	default:
		return 3
	}
}

func sortAgents(ids []core.AgentID) {
	sort.SliceStable(ids, func(i, j int) bool {
		ri, rj := rank(ids[i]), rank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})
}
