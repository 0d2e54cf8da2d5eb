package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/metricmind/campfuse/internal/report"
)

// ReportCache memoizes unified-row result sets per date range. Entries are
// purged wholesale on every mapping write so viewers never see a stale
// identity, and the TTL bounds how long an external fact reimport can stay
// invisible.
type ReportCache struct {
	c *expirable.LRU[string, []report.UnifiedRow]
}

func New(size int, ttl time.Duration) *ReportCache {
	return &ReportCache{c: expirable.NewLRU[string, []report.UnifiedRow](size, nil, ttl)}
}

func key(start, end string) string {
	return start + ".." + end
}

func (rc *ReportCache) Get(start, end string) ([]report.UnifiedRow, bool) {
	return rc.c.Get(key(start, end))
}

func (rc *ReportCache) Set(start, end string, rows []report.UnifiedRow) {
	rc.c.Add(key(start, end), rows)
}

func (rc *ReportCache) Purge() {
	rc.c.Purge()
}
