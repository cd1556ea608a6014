package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// AssessInput is the input schema for the assess_eligibility tool.
type AssessInput struct {
	Query        string `json:"query" jsonschema:"the eligibility question, e.g. can I get a skilled worker visa"`
	TopK         int    `json:"top_k,omitempty" jsonschema:"number of policy passages to retrieve (default from settings)"`
	Age          string `json:"age,omitempty" jsonschema:"applicant age"`
	Income       string `json:"income,omitempty" jsonschema:"applicant or sponsor income, e.g. £29,000"`
	FamilyStatus string `json:"family_status,omitempty" jsonschema:"marital or family status"`
	Nationality  string `json:"nationality,omitempty" jsonschema:"applicant nationality"`
}

// profile returns the user profile, or nil when no field is set.
func (in AssessInput) profile() *domain.UserProfile {
	p := &domain.UserProfile{
		Age:          in.Age,
		Income:       in.Income,
		FamilyStatus: in.FamilyStatus,
		Nationality:  in.Nationality,
	}
	if !p.HasFacts() {
		return nil
	}
	return p
}

// AssessOutput is the output schema for the assess_eligibility tool.
type AssessOutput struct {
	Decision        string         `json:"decision"`
	Eligibility     string         `json:"eligibility"`
	Confidence      float64        `json:"confidence"`
	Explanation     string         `json:"explanation,omitempty"`
	Citations       []int          `json:"citations,omitempty"`
	AdditionalFacts []string       `json:"additional_facts_required,omitempty"`
	Sources         []SourceOutput `json:"sources"`
	Degraded        bool           `json:"degraded,omitempty"`
}

// QuestionInput is the input schema for the ask_visa_question tool.
type QuestionInput struct {
	Query string `json:"query" jsonschema:"a general question about visa rules or documents"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of policy passages to retrieve (default from settings)"`
}

// QuestionOutput is the output schema for the ask_visa_question tool.
type QuestionOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one retrieved passage reference.
type SourceOutput struct {
	Rank    int     `json:"rank"`
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assess_eligibility",
		Description: "Assess visa eligibility against the indexed policy documents",
	}, s.handleAssess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_visa_question",
		Description: "Answer a general visa question with citations to the indexed policy documents",
	}, s.handleQuestion)
}

// handleAssess handles the assess_eligibility tool invocation.
func (s *Server) handleAssess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessInput,
) (*mcp.CallToolResult, AssessOutput, error) {
	answer, err := s.ports.Query.Run(ctx, domain.QueryRequest{
		Query:   input.Query,
		TopK:    input.TopK,
		Mode:    domain.PromptModeDecision,
		Profile: input.profile(),
	})
	if err != nil {
		return nil, AssessOutput{}, err
	}

	decision := answer.Parsed.Decision
	if decision == "" {
		decision = answer.YesNo.Description()
	}
	return nil, AssessOutput{
		Decision:        decision,
		Eligibility:     answer.YesNo.String(),
		Confidence:      answer.FinalConfidence,
		Explanation:     answer.Parsed.Explanation,
		Citations:       answer.Parsed.Citations,
		AdditionalFacts: answer.Parsed.AdditionalFacts,
		Sources:         sourcesFor(answer),
		Degraded:        answer.Degraded,
	}, nil
}

// handleQuestion handles the ask_visa_question tool invocation.
func (s *Server) handleQuestion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionInput,
) (*mcp.CallToolResult, QuestionOutput, error) {
	answer, err := s.ports.Query.Run(ctx, domain.QueryRequest{
		Query: input.Query,
		TopK:  input.TopK,
		Mode:  domain.PromptModeInformational,
	})
	if err != nil {
		return nil, QuestionOutput{}, err
	}

	return nil, QuestionOutput{
		Answer:  strings.TrimSpace(answer.RawLLM),
		Sources: sourcesFor(answer),
	}, nil
}

func sourcesFor(answer *domain.Answer) []SourceOutput {
	out := make([]SourceOutput, len(answer.Retrieved))
	for i, r := range answer.Retrieved {
		out[i] = SourceOutput{
			Rank:    i + 1,
			ChunkID: r.UID,
			Source:  r.Meta.Source,
			Score:   r.Score,
		}
	}
	return out
}
