// Package mcpserver exposes checklist operations as Model Context Protocol
// tools so assistants can apply plans and move tasks forward.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/alexanderramin/implanta/internal/progress"
	"github.com/alexanderramin/implanta/internal/service"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

// Services are the operations the tools call into.
type Services struct {
	Plans     service.PlanService
	Checklist service.ChecklistService
	Progress  service.ProgressService
}

// Server wraps the services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	svc    Services
	actor  string
	now    func() time.Time
}

// NewServer builds the tool surface. actor is recorded in history when a
// call does not name one.
func NewServer(svc Services, actor, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{svc: svc, actor: actor, now: time.Now}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "implanta", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server, for in-memory transports in tests.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

type applyPlanInput struct {
	TemplateID    string `json:"template_id" jsonschema:"id of the plan template to clone"`
	ImplantacaoID string `json:"implantacao_id" jsonschema:"id of the implementation receiving the checklist"`
	StartDate     string `json:"start_date,omitempty" jsonschema:"YYYY-MM-DD reference for day offsets; defaults to the implementation start date"`
	Actor         string `json:"actor,omitempty" jsonschema:"who is applying the plan"`
}

type applyPlanOutput struct {
	RootIDs   []string `json:"root_ids"`
	NodeCount int      `json:"node_count"`
}

type toggleTaskInput struct {
	NodeID    string `json:"node_id" jsonschema:"id of a tarefa or subtarefa"`
	Completed bool   `json:"completed" jsonschema:"true to complete, false to reopen"`
	Actor     string `json:"actor,omitempty"`
}

type reassignTaskInput struct {
	NodeID      string `json:"node_id"`
	Responsible string `json:"responsible" jsonschema:"new responsible; empty clears it"`
	Actor       string `json:"actor,omitempty"`
}

type rescheduleTaskInput struct {
	NodeID   string `json:"node_id"`
	Deadline string `json:"deadline,omitempty" jsonschema:"new deadline as YYYY-MM-DD; empty clears it"`
	Actor    string `json:"actor,omitempty"`
}

type nodeOutput struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	Title            string `json:"title"`
	Completed        bool   `json:"completed"`
	CompletionDate   string `json:"completion_date,omitempty"`
	Responsible      string `json:"responsible,omitempty"`
	Tag              string `json:"tag,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	OriginalDeadline string `json:"original_deadline,omitempty"`
}

type mutationOutput struct {
	Node    nodeOutput `json:"node"`
	Changed bool       `json:"changed"`
}

type getProgressInput struct {
	ImplantacaoID string `json:"implantacao_id,omitempty" jsonschema:"implementation to report on"`
	NodeID        string `json:"node_id,omitempty" jsonschema:"subtree root to report on instead of a whole implementation"`
}

type progressOutput struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type rootProgressOutput struct {
	NodeID  string `json:"node_id"`
	Title   string `json:"title"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

type getProgressOutput struct {
	Overall progressOutput       `json:"overall"`
	Roots   []rootProgressOutput `json:"roots,omitempty"`
}

type nodeHistoryInput struct {
	NodeID string `json:"node_id" jsonschema:"node id; deleted nodes keep their history"`
}

type eventOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	NodeID     string `json:"node_id,omitempty"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	Actor      string `json:"actor,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type nodeHistoryOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type listOverdueInput struct {
	ImplantacaoID string `json:"implantacao_id"`
	AsOf          string `json:"as_of,omitempty" jsonschema:"YYYY-MM-DD; defaults to today"`
}

type listOverdueOutput struct {
	Nodes []nodeOutput `json:"nodes"`
	Count int          `json:"count"`
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "apply_plan",
		Description: "Clone a plan template's checklist onto an implementation, computing each task deadline from its day offset.",
	}, s.handleApplyPlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Mark a tarefa or subtarefa as completed or reopen it. Records a status_changed history entry.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reassign_task",
		Description: "Change the responsible person of a checklist node.",
	}, s.handleReassignTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reschedule_task",
		Description: "Override a node's current deadline. The original deadline is kept for reporting.",
	}, s.handleRescheduleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_progress",
		Description: "Completion percentage of an implementation (overall and per fase) or of a single subtree.",
	}, s.handleGetProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "node_history",
		Description: "Chronological history of a checklist node, including nodes that were deleted.",
	}, s.handleNodeHistory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_overdue",
		Description: "Incomplete tasks of an implementation whose deadline is before the given date.",
	}, s.handleListOverdue)
}

func (s *Server) handleApplyPlan(ctx context.Context, _ *gomcp.CallToolRequest, in applyPlanInput) (*gomcp.CallToolResult, applyPlanOutput, error) {
	start, err := parseOptionalDate("start_date", in.StartDate)
	if err != nil {
		return errorResult(err), applyPlanOutput{}, nil
	}
	var startDate time.Time
	if start != nil {
		startDate = *start
	}
	res, err := s.svc.Plans.Apply(ctx, service.ApplyInput{
		TemplateID:    in.TemplateID,
		ImplantacaoID: in.ImplantacaoID,
		Actor:         s.actorOr(in.Actor),
		StartDate:     startDate,
	})
	if err != nil {
		return errorResult(err), applyPlanOutput{}, nil
	}
	return nil, applyPlanOutput{RootIDs: res.RootIDs, NodeCount: res.NodeCount}, nil
}

func (s *Server) handleToggleTask(ctx context.Context, _ *gomcp.CallToolRequest, in toggleTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	res, err := s.svc.Checklist.Toggle(ctx, in.NodeID, in.Completed, s.actorOr(in.Actor))
	if err != nil {
		return errorResult(err), mutationOutput{}, nil
	}
	return nil, toMutationOutput(res), nil
}

func (s *Server) handleReassignTask(ctx context.Context, _ *gomcp.CallToolRequest, in reassignTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	res, err := s.svc.Checklist.Reassign(ctx, in.NodeID, in.Responsible, s.actorOr(in.Actor))
	if err != nil {
		return errorResult(err), mutationOutput{}, nil
	}
	return nil, toMutationOutput(res), nil
}

func (s *Server) handleRescheduleTask(ctx context.Context, _ *gomcp.CallToolRequest, in rescheduleTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	deadline, err := parseOptionalDate("deadline", in.Deadline)
	if err != nil {
		return errorResult(err), mutationOutput{}, nil
	}
	res, err := s.svc.Checklist.Reschedule(ctx, in.NodeID, deadline, s.actorOr(in.Actor))
	if err != nil {
		return errorResult(err), mutationOutput{}, nil
	}
	return nil, toMutationOutput(res), nil
}

func (s *Server) handleGetProgress(ctx context.Context, _ *gomcp.CallToolRequest, in getProgressInput) (*gomcp.CallToolResult, getProgressOutput, error) {
	switch {
	case in.NodeID != "":
		p, err := s.svc.Progress.NodeProgress(ctx, in.NodeID)
		if err != nil {
			return errorResult(err), getProgressOutput{}, nil
		}
		return nil, getProgressOutput{Overall: toProgressOutput(p)}, nil
	case in.ImplantacaoID != "":
		r, err := s.svc.Progress.ImplementationProgress(ctx, in.ImplantacaoID)
		if err != nil {
			return errorResult(err), getProgressOutput{}, nil
		}
		out := getProgressOutput{Overall: toProgressOutput(r.Overall)}
		for _, rp := range r.Roots {
			out.Roots = append(out.Roots, rootProgressOutput{
				NodeID:  rp.Node.ID,
				Title:   rp.Node.Title,
				Done:    rp.Progress.Done,
				Total:   rp.Progress.Total,
				Percent: rp.Progress.Percent,
			})
		}
		return nil, out, nil
	default:
		return errorResult(errors.New("implantacao_id or node_id is required")), getProgressOutput{}, nil
	}
}

func (s *Server) handleNodeHistory(ctx context.Context, _ *gomcp.CallToolRequest, in nodeHistoryInput) (*gomcp.CallToolResult, nodeHistoryOutput, error) {
	if strings.TrimSpace(in.NodeID) == "" {
		return errorResult(errors.New("node_id is required")), nodeHistoryOutput{}, nil
	}
	events, err := s.svc.Checklist.NodeHistory(ctx, in.NodeID)
	if err != nil {
		return errorResult(err), nodeHistoryOutput{}, nil
	}
	out := nodeHistoryOutput{Events: make([]eventOutput, len(events)), Count: len(events)}
	for i, e := range events {
		out.Events[i] = eventOutput{
			ID:         e.ID,
			Kind:       string(e.Kind),
			NodeID:     e.NodeID,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			Actor:      e.Actor,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return nil, out, nil
}

func (s *Server) handleListOverdue(ctx context.Context, _ *gomcp.CallToolRequest, in listOverdueInput) (*gomcp.CallToolResult, listOverdueOutput, error) {
	asOf, err := parseOptionalDate("as_of", in.AsOf)
	if err != nil {
		return errorResult(err), listOverdueOutput{}, nil
	}
	day := s.now()
	if asOf != nil {
		day = *asOf
	}
	nodes, err := s.svc.Checklist.Overdue(ctx, in.ImplantacaoID, day)
	if err != nil {
		return errorResult(err), listOverdueOutput{}, nil
	}
	out := listOverdueOutput{Nodes: make([]nodeOutput, len(nodes)), Count: len(nodes)}
	for i, n := range nodes {
		out.Nodes[i] = toNodeOutput(n)
	}
	return nil, out, nil
}

func (s *Server) actorOr(actor string) string {
	if a := strings.TrimSpace(actor); a != "" {
		return a
	}
	return s.actor
}

// errorResult reports err to the client as a failed tool call. Domain errors
// keep their message so callers can tell not-found from validation.
func errorResult(err error) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.NewValidationError(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(layout)
}

func toNodeOutput(n *domain.ChecklistNode) nodeOutput {
	return nodeOutput{
		ID:               n.ID,
		Kind:             string(n.Kind),
		Title:            n.Title,
		Completed:        n.Completed,
		CompletionDate:   formatOptionalDate(n.CompletionDate, time.RFC3339),
		Responsible:      n.Responsible,
		Tag:              string(n.Tag),
		Deadline:         formatOptionalDate(n.Deadline, dateLayout),
		OriginalDeadline: formatOptionalDate(n.OriginalDeadline, dateLayout),
	}
}

func toMutationOutput(res *service.MutationResult) mutationOutput {
	return mutationOutput{Node: toNodeOutput(res.Node), Changed: res.Changed}
}

func toProgressOutput(p progress.Progress) progressOutput {
	return progressOutput{Done: p.Done, Total: p.Total, Percent: p.Percent}
}
