package main

import (
	"sync"

	"attache/internal/accounts"
	"attache/internal/config"
	"attache/internal/github"
	"attache/internal/knowledge"
	"attache/internal/services"
)

// defaultFactories wires the real collaborator implementations. The
// knowledge store backs both the query engine and the knowledge graph, so
// its construction is shared between the two factories.
func defaultFactories(cfg *config.Config) services.Factories {
	var (
		storeOnce sync.Once
		store     *knowledge.Store
		storeErr  error
	)
	openStore := func() (*knowledge.Store, error) {
		storeOnce.Do(func() {
			store, storeErr = knowledge.Open(cfg.DatabasePath)
		})
		return store, storeErr
	}

	return services.Factories{
		QueryEngine: func() (services.QueryEngine, error) {
			return openStore()
		},
		KnowledgeGraph: func() (services.KnowledgeGraph, error) {
			return openStore()
		},
		CodeHost: func() (services.CodeHost, error) {
			return github.New(github.Config{
				BaseURL: cfg.GitHubBaseURL,
				Token:   cfg.GitHubToken,
			}), nil
		},
		AccountManager: func() (services.AccountManager, error) {
			// Per-account mail/drive/calendar plumbing is provided by
			// the host deployment; without accounts configured the
			// manager reports empty results rather than failing.
			return accounts.NewMultiManager(nil, nil,
				accounts.WithLocation(cfg.Location())), nil
		},
	}
}
