package pipeline

import "fmt"

// ExpansionError reports that topic expansion produced zero or
// malformed scenarios.
type ExpansionError struct {
	Reason string
	Err    error
}

func (e *ExpansionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scenario expansion failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scenario expansion failed: %s", e.Reason)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// RunAbortedError reports that an item processor failed mid-run. The
// whole run is abandoned; no partial result is sealed or published.
type RunAbortedError struct {
	ScenarioIndex int
	ItemIndex     int
	Item          string
	Err           error
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("run aborted at scenario %d item %d (%q): %v",
		e.ScenarioIndex, e.ItemIndex, e.Item, e.Err)
}

func (e *RunAbortedError) Unwrap() error { return e.Err }
