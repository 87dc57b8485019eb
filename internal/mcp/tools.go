package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// catalog declares the fixed set of host-exposed tools. The table is
// static: listing returns it verbatim regardless of collaborator state.
// Adding fields to a schema is safe; renaming or removing a tool is a
// breaking change for external consumers.
func catalog() []mcp.Tool {
	return []mcp.Tool{
		// Search tools
		mcp.NewTool("search",
			mcp.WithDescription("Semantic search across all indexed data including emails, documents, calendar events, messages, and code-host content."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
			mcp.WithArray("content_types", mcp.Description("Filter by content types: email, file, event, message, issue, pr"), mcp.WithStringItems()),
			mcp.WithArray("sources", mcp.Description("Filter by sources: gmail, drive, calendar, github, slack"), mcp.WithStringItems()),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 10)")),
		),
		mcp.NewTool("search_emails",
			mcp.WithDescription("Search emails across all accounts with tiered priority (primary accounts searched first)."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Mail search query")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 20)")),
			mcp.WithBoolean("tier1_only", mcp.Description("Only search primary accounts (default: false)")),
		),
		mcp.NewTool("search_drive",
			mcp.WithDescription("Search drive files across all accounts."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search text for file names and content")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 20)")),
		),

		// Calendar tools
		mcp.NewTool("get_calendar_events",
			mcp.WithDescription("Get calendar events for a specific date from all accounts."),
			mcp.WithString("date", mcp.Description("Date reference: 'today', 'tomorrow', 'yesterday', or ISO format YYYY-MM-DD (default: today)")),
		),
		mcp.NewTool("check_availability",
			mcp.WithDescription("Find available time slots across all calendars for scheduling meetings."),
			mcp.WithString("date", mcp.Description("Date to check: 'today', 'tomorrow', or ISO format (default: today)")),
			mcp.WithNumber("duration_minutes", mcp.Description("Minimum slot duration in minutes (default: 30)")),
			mcp.WithNumber("working_hours_start", mcp.Description("Working hours start, 24h format (default: 9)")),
			mcp.WithNumber("working_hours_end", mcp.Description("Working hours end, 24h format (default: 18)")),
		),

		// Email tools
		mcp.NewTool("get_unread_counts",
			mcp.WithDescription("Get unread email counts for all accounts."),
		),

		// Code-host tools
		mcp.NewTool("get_github_prs",
			mcp.WithDescription("Get the user's pull requests from the code host."),
			mcp.WithString("state", mcp.Description("PR state: 'open', 'closed', or 'all' (default: open)")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 10)")),
		),
		mcp.NewTool("get_github_issues",
			mcp.WithDescription("Get issues assigned to the user."),
			mcp.WithString("state", mcp.Description("Issue state: 'open', 'closed', or 'all' (default: open)")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 10)")),
		),
		mcp.NewTool("search_github_code",
			mcp.WithDescription("Search code in repositories."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Code search query")),
			mcp.WithString("repo", mcp.Description("Optional: limit to a specific repository")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 20)")),
		),

		// Knowledge graph tools
		mcp.NewTool("find_person",
			mcp.WithDescription("Find people in the knowledge graph by name or email."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Name or email to search for")),
		),
		mcp.NewTool("get_person_activity",
			mcp.WithDescription("Get recent activity involving a specific person (emails, meetings, mentions)."),
			mcp.WithString("person_id", mcp.Required(), mcp.Description("Person entity ID from the knowledge graph")),
			mcp.WithArray("content_types", mcp.Description("Filter by content types"), mcp.WithStringItems()),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default: 20)")),
		),
		mcp.NewTool("get_knowledge_graph_stats",
			mcp.WithDescription("Get statistics about the indexed knowledge graph (entity counts, content counts, sync status)."),
		),

		// Briefing tool
		mcp.NewTool("get_daily_briefing",
			mcp.WithDescription("Get a daily briefing summary including calendar events, unread emails, and code-host status."),
		),
	}
}
