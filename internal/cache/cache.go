// Package cache provides the advisory aggregate cache: short-TTL derived
// data (dashboards, reports, FX rates) keyed by scoped string keys.
//
// The cache is never load-bearing. Every read path tolerates a missing or
// absent backend by falling through to direct computation, and invalidation
// happens on every ledger-mutating operation.
package cache

import (
	"fmt"
	"time"
)

// TTLs per derived-data class.
const (
	TTLDashboard = 5 * time.Minute
	TTLReport    = 5 * time.Minute
	TTLMonthly   = 15 * time.Minute
	TTLRates     = 24 * time.Hour
)

// Store is a string cache with per-entry TTL. Implementations must make all
// operations safe to call concurrently; failures are swallowed, never
// returned.
type Store interface {
	// Get retrieves a value. ok is false on miss or expiry.
	Get(key string) (value string, ok bool)

	// Set stores a value with a TTL.
	Set(key string, value string, ttl time.Duration)

	// Del removes a single key.
	Del(key string)

	// DelPrefix removes every key sharing a prefix. Used for the
	// dashboard:{userID}: wildcard sweep on ledger mutation.
	DelPrefix(prefix string)
}

// DashboardKey scopes a dashboard aggregate to one account, or to the
// all-accounts view when accountID is 0.
func DashboardKey(userID, accountID int64) string {
	if accountID == 0 {
		return fmt.Sprintf("dashboard:%d:all", userID)
	}
	return fmt.Sprintf("dashboard:%d:%d", userID, accountID)
}

// DashboardPrefix covers every dashboard key of one user.
func DashboardPrefix(userID int64) string {
	return fmt.Sprintf("dashboard:%d:", userID)
}

func ReportKey(userID int64, start, end time.Time, txType string, categoryID int64) string {
	if txType == "" {
		txType = "all"
	}
	cat := "all"
	if categoryID != 0 {
		cat = fmt.Sprintf("%d", categoryID)
	}
	return fmt.Sprintf("report:%d:%s:%s:%s:%s",
		userID, start.Format("2006-01-02"), end.Format("2006-01-02"), txType, cat)
}

func ReportPrefix(userID int64) string {
	return fmt.Sprintf("report:%d:", userID)
}

func MonthlySummaryKey(userID int64, year int, month time.Month) string {
	return fmt.Sprintf("monthly:%d:%d-%02d", userID, year, int(month))
}

func MonthlyPrefix(userID int64) string {
	return fmt.Sprintf("monthly:%d:", userID)
}

func RatesKey(base string) string {
	return fmt.Sprintf("rates:%s", base)
}

// InvalidateUser sweeps every derived aggregate of one user. Called after
// each ledger-mutating operation. Nil-safe: a missing backend is a no-op.
func InvalidateUser(s Store, userID int64) {
	if s == nil {
		return
	}
	s.DelPrefix(DashboardPrefix(userID))
	s.DelPrefix(ReportPrefix(userID))
	s.DelPrefix(MonthlyPrefix(userID))
}

// Cleaner is implemented by stores that support expired-entry cleanup.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup over registered stores.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range m.caches {
				cache.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
