// Package services defines the narrow interfaces of the host collaborators
// the server role dispatches to, and the Locator that lazily constructs
// and caches one handle per collaborator kind.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attache/pkg/models"
)

// QueryEngine is the semantic search collaborator.
type QueryEngine interface {
	Search(ctx context.Context, query string, contentTypes, sources []string, topK int) ([]models.SearchResult, error)
	FindPerson(ctx context.Context, query string) ([]models.Person, error)
	PersonActivity(ctx context.Context, personID string, contentTypes []string, limit int) ([]models.Activity, error)
}

// AccountManager is the multi-account calendar/email/drive collaborator.
type AccountManager interface {
	SearchMailTiered(ctx context.Context, query string, maxResults int, tier1Only bool) ([]models.EmailMessage, error)
	SearchDriveTiered(ctx context.Context, query string, maxResults int) ([]models.DriveFile, error)
	CalendarsForDate(ctx context.Context, date time.Time) ([]models.CalendarEvent, error)
	CalendarsToday(ctx context.Context) ([]models.CalendarEvent, error)
	CheckAvailability(ctx context.Context, date time.Time, durationMinutes, workStart, workEnd int) ([]models.FreeSlot, error)
	UnreadCounts(ctx context.Context) (map[string]int, error)
}

// CodeHost is the code-hosting collaborator.
type CodeHost interface {
	MyPullRequests(ctx context.Context, state string, maxResults int) ([]models.PullRequest, error)
	MyIssues(ctx context.Context, state string, maxResults int) ([]models.Issue, error)
	SearchCode(ctx context.Context, query string, maxResults int) ([]models.CodeMatch, error)
	SearchCodeInRepo(ctx context.Context, repo, query string, maxResults int) ([]models.CodeMatch, error)
}

// KnowledgeGraph is the indexed knowledge-graph store.
type KnowledgeGraph interface {
	Stats(ctx context.Context) (models.GraphStats, error)
}

// Factories build the collaborator handles on first use.
type Factories struct {
	QueryEngine    func() (QueryEngine, error)
	AccountManager func() (AccountManager, error)
	CodeHost       func() (CodeHost, error)
	KnowledgeGraph func() (KnowledgeGraph, error)
}

// Locator lazily constructs and caches collaborator handles, one per kind
// per process lifetime. Construction is guarded so each factory runs at
// most once; Reset clears the cache for tests and full teardown.
type Locator struct {
	factories Factories

	mu       sync.Mutex
	engine   QueryEngine
	accounts AccountManager
	codeHost CodeHost
	graph    KnowledgeGraph
}

// NewLocator creates a Locator with the given factories.
func NewLocator(factories Factories) *Locator {
	return &Locator{factories: factories}
}

// QueryEngine returns the cached query engine, constructing it on first use.
func (l *Locator) QueryEngine() (QueryEngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine == nil {
		if l.factories.QueryEngine == nil {
			return nil, fmt.Errorf("query engine not configured")
		}
		engine, err := l.factories.QueryEngine()
		if err != nil {
			return nil, fmt.Errorf("failed to construct query engine: %w", err)
		}
		l.engine = engine
	}
	return l.engine, nil
}

// AccountManager returns the cached account manager, constructing it on
// first use.
func (l *Locator) AccountManager() (AccountManager, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accounts == nil {
		if l.factories.AccountManager == nil {
			return nil, fmt.Errorf("account manager not configured")
		}
		accounts, err := l.factories.AccountManager()
		if err != nil {
			return nil, fmt.Errorf("failed to construct account manager: %w", err)
		}
		l.accounts = accounts
	}
	return l.accounts, nil
}

// CodeHost returns the cached code-host client, constructing it on first use.
func (l *Locator) CodeHost() (CodeHost, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.codeHost == nil {
		if l.factories.CodeHost == nil {
			return nil, fmt.Errorf("code host not configured")
		}
		codeHost, err := l.factories.CodeHost()
		if err != nil {
			return nil, fmt.Errorf("failed to construct code host: %w", err)
		}
		l.codeHost = codeHost
	}
	return l.codeHost, nil
}

// KnowledgeGraph returns the cached knowledge graph, constructing it on
// first use.
func (l *Locator) KnowledgeGraph() (KnowledgeGraph, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.graph == nil {
		if l.factories.KnowledgeGraph == nil {
			return nil, fmt.Errorf("knowledge graph not configured")
		}
		graph, err := l.factories.KnowledgeGraph()
		if err != nil {
			return nil, fmt.Errorf("failed to construct knowledge graph: %w", err)
		}
		l.graph = graph
	}
	return l.graph, nil
}

// Reset drops every cached handle so the next access reconstructs it.
func (l *Locator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine = nil
	l.accounts = nil
	l.codeHost = nil
	l.graph = nil
}
