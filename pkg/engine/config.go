package engine

// DefaultMaxRounds is the tool-round budget used when none is configured.
const DefaultMaxRounds = 3

// Config holds configuration for the orchestration loop.
type Config struct {
	// DefaultModel is used when a message names no model.
	DefaultModel string

	// MaxRounds is the maximum number of completion calls that may lead to
	// tool execution. One additional completion is allowed to summarize
	// after the budget is exhausted, or to recover from a turn whose tool
	// requests were all denied. Zero or negative means DefaultMaxRounds.
	MaxRounds int
}

// maxRounds returns the effective round budget.
func (c Config) maxRounds() int {
	if c.MaxRounds <= 0 {
		return DefaultMaxRounds
	}
	return c.MaxRounds
}
