package domain

// Source-size thresholds for the progress estimate, in characters of
// source text. Units below smallSourceLimit are "small", below
// mediumSourceLimit "medium", everything else "large".
const (
	smallSourceLimit  = 2000
	mediumSourceLimit = 8000

	expectedItemsSmall  = 15
	expectedItemsMedium = 25
	expectedItemsLarge  = 40
)

// EstimateExpectedItems maps the size of a unit's source text to the
// number of sub-items an asynchronous generation job is expected to
// produce. The estimate drives progress display only; it never gates
// completion, which is detected by the job's terminal status.
func EstimateExpectedItems(sourceLen int) int {
	switch {
	case sourceLen < smallSourceLimit:
		return expectedItemsSmall
	case sourceLen < mediumSourceLimit:
		return expectedItemsMedium
	default:
		return expectedItemsLarge
	}
}
