// candidates.go — the candidate-scoring ladder: same preference order as
// the teacher's executeClickWithHealing (internal/recording/playback_engine.go),
// generalized from "click only" to every recorded selector strategy and
// scored into a confidence in [0,1] instead of a binary try/fail.
package healer

import "github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"

// Candidate is one resolution strategy scored against a step's recorded
// selectors/metadata.
type Candidate struct {
	Strategy   string // primary | data_testid | css | nearby_xy | last_known
	Selector   string
	Score      float64
}

// ScoreCandidates ranks every strategy the step has enough recorded data to
// attempt, highest confidence first. found reports, per strategy, whether
// the page controller was actually able to resolve an element for it —
// strategies the page never attempted score 0 and are dropped.
func ScoreCandidates(step wtypes.Step, found map[string]bool) []Candidate {
	var out []Candidate

	if step.Selectors.DataTestID != "" && found["data_testid"] {
		out = append(out, Candidate{Strategy: "data_testid", Selector: step.Selectors.DataTestID, Score: 1.0})
	}
	if step.Selectors.Primary != "" && found["primary"] {
		out = append(out, Candidate{Strategy: "primary", Selector: step.Selectors.Primary, Score: 0.95})
	}
	if step.Selectors.CSS != "" && found["css"] {
		out = append(out, Candidate{Strategy: "css", Selector: step.Selectors.CSS, Score: 0.75})
	}
	if found["nearby_xy"] {
		out = append(out, Candidate{Strategy: "nearby_xy", Selector: "", Score: 0.65})
	}
	if found["last_known"] {
		out = append(out, Candidate{Strategy: "last_known", Selector: "", Score: 0.4})
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Best returns the highest-scoring candidate, or the zero value and false
// if none were found.
func Best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}
