// Package query filters, searches and sorts lists fetched from the backend.
// Nothing here mutates its input.
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
)

// AllProviders disables the provider filter
const AllProviders = "all"

// Providers returns "all" followed by each distinct provider in order of first appearance
func Providers(plans []client.Plan) []string {
	out := []string{AllProviders}
	seen := map[string]bool{}
	for _, p := range plans {
		if p.Provider == "" || seen[p.Provider] {
			continue
		}
		seen[p.Provider] = true
		out = append(out, p.Provider)
	}
	return out
}

// PlanFilter selects plans by provider and a free-text term
type PlanFilter struct {
	Provider string // "" or "all" for every provider
	Search   string // matches plan name, price or add-ons
}

// FilterPlans applies f to plans
func FilterPlans(plans []client.Plan, f PlanFilter) []client.Plan {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]client.Plan, 0, len(plans))
	for _, p := range plans {
		if f.Provider != "" && f.Provider != AllProviders && !strings.EqualFold(p.Provider, f.Provider) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.PlanName), term) &&
			!strings.Contains(formatAmount(p.Price), term) &&
			!strings.Contains(strings.ToLower(p.AddOns), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Status filter values
const (
	StatusAll     = "all"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// Date windows
const (
	DateAll   = "all"
	DateToday = "today"
	DateWeek  = "week"
	DateMonth = "month"
)

// Sort orders
const (
	Newest = "newest"
	Oldest = "oldest"
)

// TransactionFilter composes search, status, date and ordering
type TransactionFilter struct {
	Search string
	Status string
	Date   string
	Order  string
	Now    time.Time // reference time for the date window; zero means time.Now()
}

// FilterTransactions applies f and returns a new, sorted slice
func FilterTransactions(txs []client.Transaction, f TransactionFilter) []client.Transaction {
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]client.Transaction, 0, len(txs))
	for _, t := range txs {
		if term != "" && !matchesTransaction(t, term) {
			continue
		}
		if f.Status != "" && f.Status != StatusAll && !strings.EqualFold(t.Status, f.Status) {
			continue
		}
		if !inWindow(t.CreatedAt, f.Date, now) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if f.Order == Oldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matchesTransaction(t client.Transaction, term string) bool {
	if strings.Contains(t.MobileNumber, term) ||
		strings.Contains(strings.ToLower(t.Provider), term) ||
		strings.Contains(strings.ToLower(t.Plan.Name()), term) {
		return true
	}
	if u := t.User.User; u != nil {
		return strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term)
	}
	return false
}

func inWindow(created time.Time, window string, now time.Time) bool {
	switch window {
	case DateToday:
		y1, m1, d1 := created.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateWeek:
		return !created.Before(now.AddDate(0, 0, -7))
	case DateMonth:
		return !created.Before(now.AddDate(0, -1, 0))
	default:
		return true
	}
}

// Summary aggregates a list of transactions
type Summary struct {
	Count   int
	Total   float64
	Success int
	Failed  int
	Last    time.Time
}

// Summarize totals txs. Last is the newest creation time.
func Summarize(txs []client.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		s.Count++
		s.Total += t.Amount
		switch strings.ToLower(t.Status) {
		case StatusSuccess:
			s.Success++
		case StatusFailed:
			s.Failed++
		}
		if t.CreatedAt.After(s.Last) {
			s.Last = t.CreatedAt
		}
	}
	return s
}

// Recent returns at most n transactions, newest first
func Recent(txs []client.Transaction, n int) []client.Transaction {
	sorted := FilterTransactions(txs, TransactionFilter{Order: Newest})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SearchUsers matches name, email or phone
func SearchUsers(users []client.User, search string) []client.User {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]client.User, 0, len(users))
	for _, u := range users {
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(u.Phone, term) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// NewThisMonth counts users created in the calendar month of now
func NewThisMonth(users []client.User, now time.Time) int {
	n := 0
	for _, u := range users {
		c := u.CreatedAt.In(now.Location())
		if c.Year() == now.Year() && c.Month() == now.Month() {
			n++
		}
	}
	return n
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
