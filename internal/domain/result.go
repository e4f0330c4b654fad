package domain

import "time"

// EnrichmentStatus classifies the outcome of one enrichment attempt.
type EnrichmentStatus string

const (
	StatusEnriched    EnrichmentStatus = "enriched"
	StatusSkipped     EnrichmentStatus = "skipped"      // address failed validation, no network call
	StatusNoData      EnrichmentStatus = "no_data"      // fetch or normalization produced nothing usable
	StatusWriteFailed EnrichmentStatus = "write_failed" // storage rejected the update
)

// EnrichmentResult is the per-item outcome carried up to the coordinator
// instead of being swallowed at the point of failure.
type EnrichmentResult struct {
	ContractAddress string
	Ticker          string
	Status          EnrichmentStatus
	Reason          string
}

func (r EnrichmentResult) Succeeded() bool {
	return r.Status == StatusEnriched
}

// RunReport aggregates a full coordinator run.
type RunReport struct {
	RunID     string
	Processed int
	Succeeded int
	Failed    int
	ByStatus  map[EnrichmentStatus]int
	Results   []EnrichmentResult

	Started  time.Time
	Finished time.Time

	// Post-run table stats.
	TotalCoins     int
	CoinsWithPrice int
}

func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:    runID,
		ByStatus: make(map[EnrichmentStatus]int),
	}
}

func (r *RunReport) Add(res EnrichmentResult) {
	r.Processed++
	if res.Succeeded() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.ByStatus[res.Status]++
	r.Results = append(r.Results, res)
}

// SuccessRate returns the percentage of processed items that were enriched.
func (r *RunReport) SuccessRate() float64 {
	if r.Processed == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Processed) * 100
}

// FailureReasons returns results that did not succeed, for structured
// reporting by the caller.
func (r *RunReport) FailureReasons() []EnrichmentResult {
	var failed []EnrichmentResult
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res)
		}
	}
	return failed
}
