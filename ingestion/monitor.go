package ingestion

// Stage names one phase of a sync. Stages are strictly ordered; Error
// is absorbing and reachable from any of them.
type Stage string

const (
	StageFetching   Stage = "fetching"
	StageExtracting Stage = "extracting"
	StageEmbedding  Stage = "embedding"
	StageStoring    Stage = "storing"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// Progress budgets per stage, as percent of the whole sync.
const (
	fetchingEnd   = 30
	extractingEnd = 70
	embeddingEnd  = 95
)

// Progress is one event in the sync progress stream.
type Progress struct {
	Stage          Stage
	Message        string
	Percent        int
	TotalItems     int
	ProcessedItems int
}

// SyncMonitor observes a sync invocation. Implement this to stream
// progress to a caller; every event carries a human-readable message.
type SyncMonitor interface {
	Start(slug string)
	Progress(p Progress)
	ItemSkipped(externalID int64, err error)
	Finish(result *SyncResult)
}

// noopMonitor is a no-op implementation of SyncMonitor.
type noopMonitor struct{}

var _ SyncMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) Progress(_ Progress)            {}
func (n *noopMonitor) ItemSkipped(_ int64, _ error)   {}
func (n *noopMonitor) Finish(_ *SyncResult)           {}

// stageProgress interpolates within one stage's budget. done of total
// items complete maps onto [from, to].
func stageProgress(from, to, done, total int) int {
	if total <= 0 {
		return to
	}
	return from + (to-from)*done/total
}
