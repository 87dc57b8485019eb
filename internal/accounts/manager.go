// Package accounts aggregates mail, drive and calendar access across
// multiple accounts with tiered priority: tier-1 accounts are searched
// first and tier-2 accounts only fill whatever result budget remains.
package accounts

import (
	"context"
	"sort"
	"time"

	"attache/internal/logging"
	"attache/pkg/models"
)

// MailClient is one account's mail access.
type MailClient interface {
	SearchMail(ctx context.Context, query string, maxResults int) ([]models.EmailMessage, error)
	UnreadCount(ctx context.Context) (int, error)
}

// DriveClient is one account's file storage access.
type DriveClient interface {
	SearchFiles(ctx context.Context, query string, maxResults int) ([]models.DriveFile, error)
}

// CalendarClient is one account's calendar access.
type CalendarClient interface {
	EventsForDate(ctx context.Context, date time.Time) ([]models.CalendarEvent, error)
}

// Account bundles one account's clients. Any client may be nil when the
// account does not carry that capability.
type Account struct {
	Name     string
	Mail     MailClient
	Drive    DriveClient
	Calendar CalendarClient
}

// MultiManager fans requests out across tiered accounts. It satisfies the
// services.AccountManager interface.
type MultiManager struct {
	tier1 []Account
	tier2 []Account
	loc   *time.Location
	now   func() time.Time
}

// Option configures a MultiManager.
type Option func(*MultiManager)

// WithLocation sets the timezone used for working-hour boundaries.
func WithLocation(loc *time.Location) Option {
	return func(m *MultiManager) { m.loc = loc }
}

// WithClock substitutes the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *MultiManager) { m.now = now }
}

// NewMultiManager creates a manager over tier-1 and tier-2 accounts.
func NewMultiManager(tier1, tier2 []Account, opts ...Option) *MultiManager {
	m := &MultiManager{
		tier1: tier1,
		tier2: tier2,
		loc:   time.UTC,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MultiManager) allAccounts() []Account {
	all := make([]Account, 0, len(m.tier1)+len(m.tier2))
	all = append(all, m.tier1...)
	all = append(all, m.tier2...)
	return all
}

// SearchMailTiered searches tier-1 accounts first; tier-2 accounts are
// only consulted when the budget is not yet filled and tier1Only is false.
// A failing account is logged and skipped.
func (m *MultiManager) SearchMailTiered(ctx context.Context, query string, maxResults int, tier1Only bool) ([]models.EmailMessage, error) {
	results := m.searchMailAccounts(ctx, m.tier1, query, maxResults)

	if len(results) >= maxResults || tier1Only {
		return trimEmails(results, maxResults), nil
	}

	remaining := maxResults - len(results)
	results = append(results, m.searchMailAccounts(ctx, m.tier2, query, remaining)...)
	return trimEmails(results, maxResults), nil
}

func (m *MultiManager) searchMailAccounts(ctx context.Context, accounts []Account, query string, maxResults int) []models.EmailMessage {
	var results []models.EmailMessage
	for _, account := range accounts {
		if account.Mail == nil {
			continue
		}
		emails, err := account.Mail.SearchMail(ctx, query, maxResults)
		if err != nil {
			logging.Warn("Mail search failed for account %s: %v", account.Name, err)
			continue
		}
		results = append(results, emails...)
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

// SearchDriveTiered searches files with the same tiering as mail.
func (m *MultiManager) SearchDriveTiered(ctx context.Context, query string, maxResults int) ([]models.DriveFile, error) {
	var results []models.DriveFile
	for _, tier := range [][]Account{m.tier1, m.tier2} {
		for _, account := range tier {
			if account.Drive == nil {
				continue
			}
			files, err := account.Drive.SearchFiles(ctx, query, maxResults-len(results))
			if err != nil {
				logging.Warn("Drive search failed for account %s: %v", account.Name, err)
				continue
			}
			results = append(results, files...)
			if len(results) >= maxResults {
				return results[:maxResults], nil
			}
		}
	}
	return results, nil
}

// CalendarsForDate merges the given date's events across every account,
// sorted by start time. A failing account is logged and skipped.
func (m *MultiManager) CalendarsForDate(ctx context.Context, date time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	for _, account := range m.allAccounts() {
		if account.Calendar == nil {
			continue
		}
		accountEvents, err := account.Calendar.EventsForDate(ctx, date)
		if err != nil {
			logging.Warn("Calendar fetch failed for account %s: %v", account.Name, err)
			continue
		}
		events = append(events, accountEvents...)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// CalendarsToday merges today's events across every account.
func (m *MultiManager) CalendarsToday(ctx context.Context) ([]models.CalendarEvent, error) {
	return m.CalendarsForDate(ctx, m.now())
}

// CheckAvailability finds free slots of at least durationMinutes between
// workStart and workEnd hours on the given date. Cancelled events are not
// busy; overlapping busy periods are merged before gaps are measured.
func (m *MultiManager) CheckAvailability(ctx context.Context, date time.Time, durationMinutes, workStart, workEnd int) ([]models.FreeSlot, error) {
	events, err := m.CalendarsForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	type interval struct{ start, end time.Time }
	var busy []interval
	for _, event := range events {
		if event.Cancelled || event.Start.IsZero() || event.End.IsZero() {
			continue
		}
		busy = append(busy, interval{event.Start, event.End})
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })

	var merged []interval
	for _, b := range busy {
		if n := len(merged); n > 0 && !b.start.After(merged[n-1].end) {
			if b.end.After(merged[n-1].end) {
				merged[n-1].end = b.end
			}
			continue
		}
		merged = append(merged, b)
	}

	local := date.In(m.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), workStart, 0, 0, 0, m.loc)
	dayEnd := time.Date(local.Year(), local.Month(), local.Day(), workEnd, 0, 0, 0, m.loc)

	minDuration := time.Duration(durationMinutes) * time.Minute
	var slots []models.FreeSlot
	current := dayStart

	appendSlot := func(start, end time.Time) {
		if gap := end.Sub(start); gap >= minDuration {
			slots = append(slots, models.FreeSlot{
				Start:           start,
				End:             end,
				DurationMinutes: int(gap.Minutes()),
			})
		}
	}

	for _, b := range merged {
		if b.start.After(dayEnd) {
			break
		}
		if current.Before(b.start) {
			appendSlot(current, b.start)
		}
		if b.end.After(current) {
			current = b.end
		}
	}
	if current.Before(dayEnd) {
		appendSlot(current, dayEnd)
	}

	return slots, nil
}

// UnreadCounts maps every mail-capable account to its unread count. An
// account whose count cannot be fetched is reported with the -1 sentinel
// so callers can tell "failed" apart from "zero".
func (m *MultiManager) UnreadCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, account := range m.allAccounts() {
		if account.Mail == nil {
			continue
		}
		count, err := account.Mail.UnreadCount(ctx)
		if err != nil {
			logging.Warn("Unread count failed for account %s: %v", account.Name, err)
			counts[account.Name] = -1
			continue
		}
		counts[account.Name] = count
	}
	return counts, nil
}

func trimEmails(emails []models.EmailMessage, maxResults int) []models.EmailMessage {
	if len(emails) > maxResults {
		return emails[:maxResults]
	}
	return emails
}
