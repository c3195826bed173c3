package search

import "github.com/poiesic/boardvec/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []uint64)
	VerbatimHit(item *core.Item)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)  {}
func (n *noopMonitor) VerbatimHit(_ *core.Item)        {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)   {}
