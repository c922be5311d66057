package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from indexed documents"`
	FolderId string `json:"folder_id,omitempty" jsonschema:"drive folder to answer from (defaults to the configured folder)"`
}

type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

type SearchInput struct {
	Query    string `json:"query" jsonschema:"the search query"`
	FolderId string `json:"folder_id,omitempty" jsonschema:"drive folder to search (defaults to the configured folder)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return"`
}

type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

type SearchResult struct {
	SourceId   string `json:"source_id"`
	DocName    string `json:"doc_name"`
	Content    string `json:"content"`
	Merged     bool   `json:"merged"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the documents indexed for a drive folder",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the most relevant document passages for a query (tabular sources come back fully reconstructed)",
	}, s.handleSearch)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, sources, err := s.ragService.Answer(ctx, input.Question, input.FolderId)
	if err != nil {
		s.logger.Error("ask tool failed", "err", err)
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer, Sources: sources}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ragService.Search(ctx, input.Query, input.FolderId, input.Limit)
	if err != nil {
		s.logger.Error("search tool failed", "err", err)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResult, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = SearchResult{
			SourceId:   r.SourceId,
			DocName:    r.DocName,
			Content:    r.Text,
			Merged:     r.Merged,
			ChunkCount: r.ChunkCount,
			Incomplete: r.Incomplete,
		}
	}
	return nil, output, nil
}
