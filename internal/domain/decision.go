package domain

import (
	"time"
)

// Action is the final recommendation for a ticker.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionWait Action = "WAIT"
	ActionPass Action = "PASS"
)

// GateName identifies one of the four decision gates, in evaluation order.
type GateName string

const (
	GateFundamental GateName = "fundamental_value"
	GateTechnical   GateName = "technical_entry"
	GateRisk        GateName = "risk_assessment"
	GateTiming      GateName = "timing_quality"
)

// GateOrder is the fixed evaluation order. Timing is advisory: it can turn a
// BUY into a WAIT but never into a PASS.
var GateOrder = [4]GateName{GateFundamental, GateTechnical, GateRisk, GateTiming}

// Reason is one structured line of gate reasoning. Reasons reference the
// sub-metric that drove them so a decision is explainable without
// re-deriving it; they are data, not prose for an LLM to parse.
type Reason struct {
	Metric string  `json:"metric"`
	Detail string  `json:"detail"`
	Impact float64 `json:"impact"` // points contributed to the gate score
}

// GateResult is the immutable outcome of evaluating one gate.
type GateResult struct {
	Gate       GateName           `json:"gate"`
	Score      float64            `json:"score"`      // 0-100
	Threshold  float64            `json:"threshold"`  // pass when Score >= Threshold
	Passed     bool               `json:"passed"`
	Confidence float64            `json:"confidence"` // 0-100, how much data backed the score
	Reasoning  []Reason           `json:"reasoning"`
	Details    map[string]float64 `json:"details,omitempty"`
}

// Decision is the final recommendation record for one evaluation. A new
// evaluation always produces a new Decision; nothing mutates one in place.
type Decision struct {
	ID                string       `json:"id"`
	Ticker            string       `json:"ticker"`
	AsOf              time.Time    `json:"as_of"`
	EvaluatedAt       time.Time    `json:"evaluated_at"`
	Final             Action       `json:"final"`
	OverallConfidence float64      `json:"overall_confidence"`
	Gates             []GateResult `json:"gates"` // always four, GateOrder order

	// EvaluationFailed marks decisions produced by the failure-containment
	// path (data source down, bad inputs). Such decisions are always PASS
	// and must be distinguishable from a genuine rejection.
	EvaluationFailed bool   `json:"evaluation_failed,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
}

// Gate returns the result for a named gate, or a zero result when absent.
func (d *Decision) Gate(name GateName) (GateResult, bool) {
	for _, g := range d.Gates {
		if g.Gate == name {
			return g, true
		}
	}
	return GateResult{}, false
}

// StructuredReasoning is the display-ready re-serialization of a Decision's
// gate reasoning. It is derived without recomputing anything.
type StructuredReasoning struct {
	Ticker            string            `json:"ticker"`
	Final             Action            `json:"final"`
	OverallConfidence float64           `json:"overall_confidence"`
	Gates             []GateReasoning   `json:"gates"`
	FailedGates       []GateName        `json:"failed_gates,omitempty"`
	Flags             map[string]string `json:"flags,omitempty"`
}

// GateReasoning is one gate's slice of a StructuredReasoning.
type GateReasoning struct {
	Gate      GateName `json:"gate"`
	Score     float64  `json:"score"`
	Threshold float64  `json:"threshold"`
	Passed    bool     `json:"passed"`
	Reasons   []Reason `json:"reasons"`
}

// Explain re-serializes the decision's gate reasoning for display.
func (d *Decision) Explain() StructuredReasoning {
	out := StructuredReasoning{
		Ticker:            d.Ticker,
		Final:             d.Final,
		OverallConfidence: d.OverallConfidence,
		Gates:             make([]GateReasoning, 0, len(d.Gates)),
	}
	for _, g := range d.Gates {
		out.Gates = append(out.Gates, GateReasoning{
			Gate:      g.Gate,
			Score:     g.Score,
			Threshold: g.Threshold,
			Passed:    g.Passed,
			Reasons:   g.Reasoning,
		})
		if !g.Passed {
			out.FailedGates = append(out.FailedGates, g.Gate)
		}
	}
	if d.EvaluationFailed {
		out.Flags = map[string]string{"evaluation_failed": d.FailureReason}
	}
	return out
}
