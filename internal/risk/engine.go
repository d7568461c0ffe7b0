package risk

// Engine aggregates a fixed rule list. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine evaluating rules in the given order. With no
// rules it uses DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Engine{rules: cp}
}

// Evaluate runs every rule and builds the verdict.
func (e *Engine) Evaluate(req Request) Verdict {
	score := 0
	activated := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Fires(req) {
			score += r.Weight()
			activated = append(activated, r.ID())
		}
	}
	if score > MaxScore {
		score = MaxScore
	}

	level := Classify(score)
	reason, recommendation := describe(level)
	return Verdict{
		Score:          score,
		Approved:       level != LevelHigh,
		Reason:         reason,
		ActivatedRules: activated,
		Level:          level,
		Recommendation: recommendation,
	}
}

// Classify maps a capped score to its level.
func Classify(score int) Level {
	switch {
	case score <= 0:
		return LevelLow
	case score < HighRiskScore:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func describe(level Level) (reason, recommendation string) {
	switch level {
	case LevelLow:
		return "transaction within normal parameters", "proceed"
	case LevelMedium:
		return "risk indicators present", "proceed with monitoring"
	default:
		return "multiple risk indicators", "manual review or block"
	}
}
