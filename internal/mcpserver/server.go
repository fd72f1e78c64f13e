// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes habitu tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/habitservice"
)

const contractURI = "habitu://habit-format"

// Server wraps the MCP server with habitu tools.
type Server struct {
	mcp *server.MCPServer
	svc *habitservice.Service
}

// New creates a new MCP server with all habitu tools registered.
func New(svc *habitservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"habitu",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_habits",
		mcp.WithDescription("List habits with today's due/done state, current streak and strength (0-100)."),
		mcp.WithBoolean("include_archived", mcp.Description("Also list archived habits")),
	), s.listHabits)

	s.mcp.AddTool(mcp.NewTool("due_today",
		mcp.WithDescription("List active habits scheduled for today."),
	), s.dueToday)

	s.mcp.AddTool(mcp.NewTool("create_habit",
		mcp.WithDescription("Create a habit. Read the habit format contract first via "+
			"get_habit_contract or the "+contractURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("type", mcp.Description("binary (default) or numeric")),
		mcp.WithNumber("goal", mcp.Description("Daily target for numeric habits")),
		mcp.WithString("unit", mcp.Description("Unit label for numeric habits")),
		mcp.WithString("frequency", mcp.Description("daily (default), weekly or interval")),
		mcp.WithString("days", mcp.Description("Comma-separated weekdays for weekly habits (e.g. Mon,Wed,Fri)")),
		mcp.WithNumber("every", mcp.Description("Interval length in days for interval habits")),
	), s.createHabit)

	s.mcp.AddTool(mcp.NewTool("log_habit",
		mcp.WithDescription("Log progress. Binary habits flip the day; numeric habits add the amount "+
			"(negative amounts undo)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Habit ID")),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD, defaults to today")),
		mcp.WithNumber("amount", mcp.Description("Amount for numeric habits, defaults to 1")),
	), s.logHabit)

	s.mcp.AddTool(mcp.NewTool("toggle_habit",
		mcp.WithDescription("Mark a day done or not done. Numeric habits jump to the goal or back to zero."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Habit ID")),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD, defaults to today")),
	), s.toggleHabit)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Overall score, perfect days of the last 30 days and the top three habits."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("get_habit_contract",
		mcp.WithDescription("Returns the habit record format and scheduling rules. "+
			"Call this before creating habits."),
	), s.getHabitContract)

	// Resource: habit format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Habit Format Contract",
			mcp.WithResourceDescription("Habit record format, frequency kinds and completion rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHabitFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func optionalDay(req mcp.CallToolRequest) (time.Time, error) {
	v, err := req.RequireString("date")
	if err != nil {
		return time.Time{}, nil
	}
	return habitservice.ParseDay(v)
}

func (s *Server) listHabits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	archived, _ := req.RequireBool("include_archived")
	return jsonResult(s.svc.Statuses(ctx, archived)), nil
}

func (s *Server) dueToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	due := s.svc.DueToday(ctx)
	if len(due) == 0 {
		return mcp.NewToolResultText("nothing due today"), nil
	}
	return jsonResult(due), nil
}

func (s *Server) createHabit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := habitservice.CreateInput{Name: name}
	if v, err := req.RequireString("type"); err == nil {
		in.Type = habit.Type(v)
	}
	if v, err := req.RequireFloat("goal"); err == nil {
		in.Goal = v
	}
	if v, err := req.RequireString("unit"); err == nil {
		in.Unit = v
	}

	kind, _ := req.RequireString("frequency")
	switch habit.FrequencyKind(kind) {
	case habit.FrequencyWeekly:
		days, _ := req.RequireString("days")
		var list []string
		for _, d := range strings.Split(days, ",") {
			if d = strings.TrimSpace(d); d != "" {
				list = append(list, d)
			}
		}
		in.Frequency = habit.Weekly(list...)
	case habit.FrequencyInterval:
		every, _ := req.RequireFloat("every")
		in.Frequency = &habit.Frequency{Kind: habit.FrequencyInterval, Every: int(every)}
	case "", habit.FrequencyDaily:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown frequency %q", kind)), nil
	}

	created, err := s.svc.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created), nil
}

func (s *Server) logHabit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := optionalDay(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := req.RequireFloat("amount")
	if err != nil {
		amount = 1
	}
	h, err := s.svc.Log(ctx, id, day, amount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h), nil
}

func (s *Server) toggleHabit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := optionalDay(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h, err := s.svc.Toggle(ctx, id, day)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h), nil
}

func (s *Server) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.GlobalStats(ctx)), nil
}

func (s *Server) getHabitContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(HabitFormatContract), nil
}

func (s *Server) readHabitFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     HabitFormatContract,
		},
	}, nil
}
