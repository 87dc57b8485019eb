package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"attache/internal/logging"
	"attache/pkg/models"
)

// jsonResult marshals a response document into a textual tool result.
func jsonResult(response any) *mcp.CallToolResult {
	resultJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err))
	}
	return mcp.NewToolResultText(string(resultJSON))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'query' parameter: %v", err)), nil
	}
	contentTypes := request.GetStringSlice("content_types", nil)
	sources := request.GetStringSlice("sources", nil)
	maxResults := request.GetInt("max_results", 10)

	engine, err := s.locator.QueryEngine()
	if err != nil {
		return nil, err
	}

	results, err := engine.Search(ctx, query, contentTypes, sources, maxResults)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"query":        query,
		"result_count": len(results),
		"results":      results,
	}), nil
}

func (s *Server) handleSearchEmails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'query' parameter: %v", err)), nil
	}
	maxResults := request.GetInt("max_results", 20)
	tier1Only := request.GetBool("tier1_only", false)

	manager, err := s.locator.AccountManager()
	if err != nil {
		return nil, err
	}

	emails, err := manager.SearchMailTiered(ctx, query, maxResults, tier1Only)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"query":        query,
		"result_count": len(emails),
		"emails":       emails,
	}), nil
}

func (s *Server) handleSearchDrive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'query' parameter: %v", err)), nil
	}
	maxResults := request.GetInt("max_results", 20)

	manager, err := s.locator.AccountManager()
	if err != nil {
		return nil, err
	}

	files, err := manager.SearchDriveTiered(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"query":        query,
		"result_count": len(files),
		"files":        files,
	}), nil
}

func (s *Server) handleGetCalendarEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetDate := ResolveDate(s.now(), request.GetString("date", "today"))

	manager, err := s.locator.AccountManager()
	if err != nil {
		return nil, err
	}

	events, err := manager.CalendarsForDate(ctx, targetDate)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"date":        targetDate.Format("2006-01-02"),
		"event_count": len(events),
		"events":      events,
	}), nil
}

func (s *Server) handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetDate := ResolveDate(s.now(), request.GetString("date", "today"))
	duration := request.GetInt("duration_minutes", 30)
	workStart := request.GetInt("working_hours_start", 9)
	workEnd := request.GetInt("working_hours_end", 18)

	manager, err := s.locator.AccountManager()
	if err != nil {
		return nil, err
	}

	freeSlots, err := manager.CheckAvailability(ctx, targetDate, duration, workStart, workEnd)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"date":             targetDate.Format("2006-01-02"),
		"duration_minutes": duration,
		"working_hours":    fmt.Sprintf("%d:00 - %d:00", workStart, workEnd),
		"free_slot_count":  len(freeSlots),
		"free_slots":       freeSlots,
	}), nil
}

func (s *Server) handleGetUnreadCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	manager, err := s.locator.AccountManager()
	if err != nil {
		return nil, err
	}

	counts, err := manager.UnreadCounts(ctx)
	if err != nil {
		return nil, err
	}

	// Negative counts are failure sentinels: kept in the per-account
	// mapping, excluded from the total.
	total := 0
	for _, count := range counts {
		if count >= 0 {
			total += count
		}
	}

	return jsonResult(map[string]any{
		"total_unread": total,
		"by_account":   counts,
	}), nil
}

func (s *Server) handleGetPullRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := request.GetString("state", "open")
	maxResults := request.GetInt("max_results", 10)

	codeHost, err := s.locator.CodeHost()
	if err != nil {
		return nil, err
	}

	prs, err := codeHost.MyPullRequests(ctx, state, maxResults)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"state":         state,
		"pr_count":      len(prs),
		"pull_requests": prs,
	}), nil
}

func (s *Server) handleGetIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := request.GetString("state", "open")
	maxResults := request.GetInt("max_results", 10)

	codeHost, err := s.locator.CodeHost()
	if err != nil {
		return nil, err
	}

	issues, err := codeHost.MyIssues(ctx, state, maxResults)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"state":       state,
		"issue_count": len(issues),
		"issues":      issues,
	}), nil
}

func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'query' parameter: %v", err)), nil
	}
	repo := request.GetString("repo", "")
	maxResults := request.GetInt("max_results", 20)

	codeHost, err := s.locator.CodeHost()
	if err != nil {
		return nil, err
	}

	var results []models.CodeMatch
	if repo != "" {
		results, err = codeHost.SearchCodeInRepo(ctx, repo, query, maxResults)
	} else {
		results, err = codeHost.SearchCode(ctx, query, maxResults)
	}
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"query":        query,
		"repo":         repo,
		"result_count": len(results),
		"results":      results,
	}), nil
}

func (s *Server) handleFindPerson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'query' parameter: %v", err)), nil
	}

	engine, err := s.locator.QueryEngine()
	if err != nil {
		return nil, err
	}

	people, err := engine.FindPerson(ctx, query)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"query":        query,
		"result_count": len(people),
		"people":       people,
	}), nil
}

func (s *Server) handleGetPersonActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	personID, err := request.RequireString("person_id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing 'person_id' parameter: %v", err)), nil
	}
	contentTypes := request.GetStringSlice("content_types", nil)
	maxResults := request.GetInt("max_results", 20)

	engine, err := s.locator.QueryEngine()
	if err != nil {
		return nil, err
	}

	activity, err := engine.PersonActivity(ctx, personID, contentTypes, maxResults)
	if err != nil {
		return nil, err
	}

	return jsonResult(map[string]any{
		"person_id":      personID,
		"activity_count": len(activity),
		"activity":       activity,
	}), nil
}

func (s *Server) handleGetGraphStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, err := s.locator.KnowledgeGraph()
	if err != nil {
		return nil, err
	}

	stats, err := graph.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return jsonResult(stats), nil
}

// handleGetDailyBriefing issues four independent collaborator calls. Each
// sub-call degrades to its empty default on failure so a broken calendar
// never hides the unread counts.
func (s *Server) handleGetDailyBriefing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	briefing := map[string]any{
		"date":          s.now().UTC().Format("Monday, January 2, 2006"),
		"events":        []models.CalendarEvent{},
		"unread_counts": map[string]int{},
		"open_prs":      []models.PullRequest{},
		"open_issues":   []models.Issue{},
	}

	manager, err := s.locator.AccountManager()
	if err != nil {
		logging.Warn("Account manager unavailable for briefing: %v", err)
	} else {
		if events, err := manager.CalendarsToday(ctx); err != nil {
			logging.Warn("Error getting calendar: %v", err)
		} else if events != nil {
			briefing["events"] = events
		}

		if counts, err := manager.UnreadCounts(ctx); err != nil {
			logging.Warn("Error getting unread counts: %v", err)
		} else if counts != nil {
			briefing["unread_counts"] = counts
		}
	}

	codeHost, err := s.locator.CodeHost()
	if err != nil {
		logging.Warn("Code host unavailable for briefing: %v", err)
	} else {
		if prs, err := codeHost.MyPullRequests(ctx, "open", 10); err != nil {
			logging.Warn("Error getting PRs: %v", err)
		} else if prs != nil {
			briefing["open_prs"] = prs
		}

		if issues, err := codeHost.MyIssues(ctx, "open", 10); err != nil {
			logging.Warn("Error getting issues: %v", err)
		} else if issues != nil {
			briefing["open_issues"] = issues
		}
	}

	return jsonResult(briefing), nil
}
