package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/visdata-app/visdata/internal/ai"
	"github.com/visdata-app/visdata/internal/chat"
	"github.com/visdata-app/visdata/internal/model"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
)

// ChartService asks the configured AI provider for chart advice over a
// user's datasets. Every operation passes through DatasetService, so
// the ownership guard applies before any prompt is built.
type ChartService struct {
	datasets      *DatasetService
	provider      ai.IProvider
	sessions      *chat.Store
	model         string
	analyzeModel  string
	timeout       time.Duration
	contextWindow int
}

func NewChartService(datasets *DatasetService, provider ai.IProvider, sessions *chat.Store, model, analyzeModel string, timeout time.Duration, contextWindow int) *ChartService {
	if analyzeModel == "" {
		analyzeModel = model
	}
	if contextWindow <= 0 {
		contextWindow = 10
	}
	return &ChartService{
		datasets:      datasets,
		provider:      provider,
		sessions:      sessions,
		model:         model,
		analyzeModel:  analyzeModel,
		timeout:       timeout,
		contextWindow: contextWindow,
	}
}

var validChartTypes = map[string]struct{}{
	"bar": {}, "line": {}, "pie": {}, "scatter": {}, "area": {}, "table": {},
}

// Analysis is the structured recommendation consumed by the chart
// renderer.
type Analysis struct {
	ChartType string `json:"chartType"`
	XColumn   string `json:"xColumn"`
	YColumn   string `json:"yColumn"`
	Reason    string `json:"reason"`
	Degraded  bool   `json:"error,omitempty"`
}

type ChatResult struct {
	Response string    `json:"response"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Recommend returns free-text chart suggestions for the dataset.
// Ownership and parse failures propagate as errors; they are never
// wrapped into a success body.
func (s *ChartService) Recommend(ctx context.Context, userID, fileID int64) (string, error) {
	table, err := s.datasets.Data(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	preview, _ := json.Marshal(table.Head(5))
	kinds := table.Classify()
	prompt := fmt.Sprintf(`You are a data analyst assistant. Given a summary of a dataset, suggest the 2-3 most suitable chart types to visualize it. For each suggestion name the chart type, which column belongs on each axis, and a one-sentence reason. Keep the answer short.

Column names: %s
Numeric columns: %s
Categorical columns: %s
Date columns: %s

First rows:
%s`,
		strings.Join(table.Columns, ", "),
		strings.Join(kinds.Numeric, ", "),
		strings.Join(kinds.Categorical, ", "),
		strings.Join(kinds.Date, ", "),
		string(preview))

	genCtx, cancel := s.generateContext(ctx)
	defer cancel()
	return s.provider.Generate(genCtx, s.model, prompt)
}

// Analyze returns a single structured chart recommendation. Provider
// failures degrade to a sensible default with Degraded set; guard and
// parse failures still propagate as errors.
func (s *ChartService) Analyze(ctx context.Context, userID, fileID int64) (*Analysis, error) {
	table, err := s.datasets.Data(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	kinds := table.Classify()
	sample, _ := json.Marshal(table.Head(10))
	prompt := fmt.Sprintf(`You are a data visualization expert. Pick the single best chart type and axis columns for this dataset.

Column names: %s
Numeric columns: %s
Categorical columns: %s
Date columns: %s

Sample rows:
%s

Chart types (pick exactly one): bar, line, pie, scatter, area, table.
Prefer a date column on the X axis with "line" or "area"; two numeric columns favor "scatter"; categorical vs numeric favors "bar". Use column names exactly as given.

Respond with only a JSON object:
{"chartType": "...", "xColumn": "...", "yColumn": "...", "reason": "..."}`,
		strings.Join(table.Columns, ", "),
		strings.Join(kinds.Numeric, ", "),
		strings.Join(kinds.Categorical, ", "),
		strings.Join(kinds.Date, ", "),
		string(sample))

	genCtx, cancel := s.generateContext(ctx)
	defer cancel()
	raw, err := s.provider.Generate(genCtx, s.analyzeModel, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("chart analysis degraded to defaults", zap.Error(err))
		return defaultAnalysis(table.Columns, err), nil
	}
	analysis, err := parseAnalysis(raw)
	if err != nil {
		logutil.GetLogger(ctx).Warn("unparsable chart analysis", zap.Error(err))
		return defaultAnalysis(table.Columns, err), nil
	}
	normalizeAnalysis(analysis, table.Columns)
	return analysis, nil
}

// Chat answers a conversational message with awareness of the user's
// uploaded files. When the message mentions one of them by name or id,
// a structured analysis is attached and fed into the prompt.
func (s *ChartService) Chat(ctx context.Context, userID int64, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErr.ErrInvalid
	}
	files, err := s.datasets.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var analysis *Analysis
	if mentioned := findMentionedFile(files, message); mentioned != nil {
		analysis, err = s.Analyze(ctx, userID, mentioned.ID)
		if err != nil {
			logutil.GetLogger(ctx).Warn("chat file analysis failed",
				zap.Int64("file_id", mentioned.ID), zap.Error(err))
			analysis = nil
		}
	}

	history := s.sessions.History(userID)
	if len(history) > s.contextWindow {
		history = history[len(history)-s.contextWindow:]
	}
	s.sessions.Append(userID, model.ChatMessage{Role: model.ChatRoleUser, Content: message})

	prompt := buildChatPrompt(files, history, analysis, message)
	genCtx, cancel := s.generateContext(ctx)
	defer cancel()
	reply, err := s.provider.Generate(genCtx, s.analyzeModel, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("chat generation failed", zap.Error(err))
		return &ChatResult{Response: chatFallback(len(files)), Analysis: analysis}, nil
	}
	s.sessions.Append(userID, model.ChatMessage{Role: model.ChatRoleAssistant, Content: reply})
	return &ChatResult{Response: reply, Analysis: analysis}, nil
}

func (s *ChartService) generateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

var jsonObjectRe = regexp.MustCompile(`\{[^{}]*"chartType"[^{}]*\}`)

func parseAnalysis(raw string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err == nil {
		return &analysis, nil
	}
	match := jsonObjectRe.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(match), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// normalizeAnalysis clamps the model's answer to a known chart type and
// to columns that actually exist.
func normalizeAnalysis(analysis *Analysis, columns []string) {
	analysis.ChartType = strings.ToLower(strings.TrimSpace(analysis.ChartType))
	if _, ok := validChartTypes[analysis.ChartType]; !ok {
		analysis.ChartType = "bar"
	}
	if !containsColumn(columns, analysis.XColumn) {
		analysis.XColumn = pickColumn(columns, 0)
	}
	if !containsColumn(columns, analysis.YColumn) {
		analysis.YColumn = pickColumn(columns, 1)
	}
	if analysis.Reason == "" {
		analysis.Reason = "Recommended by AI analysis."
	}
}

func defaultAnalysis(columns []string, cause error) *Analysis {
	reason := "The AI service is currently unavailable; default chart settings were applied."
	if cause != nil && strings.Contains(cause.Error(), "429") {
		reason = "The AI service quota is exhausted; default chart settings were applied."
	}
	return &Analysis{
		ChartType: "bar",
		XColumn:   pickColumn(columns, 0),
		YColumn:   pickColumn(columns, 1),
		Reason:    reason,
		Degraded:  true,
	}
}

func pickColumn(columns []string, idx int) string {
	if idx < len(columns) {
		return columns[idx]
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return ""
}

func containsColumn(columns []string, name string) bool {
	for _, column := range columns {
		if column == name {
			return true
		}
	}
	return false
}

func findMentionedFile(files []model.File, message string) *model.File {
	lower := strings.ToLower(message)
	for i := range files {
		if strings.Contains(lower, strings.ToLower(files[i].Filename)) {
			return &files[i]
		}
		if strings.Contains(lower, fmt.Sprintf("file %d", files[i].ID)) {
			return &files[i]
		}
	}
	return nil
}

func buildChatPrompt(files []model.File, history []model.ChatMessage, analysis *Analysis, message string) string {
	var b strings.Builder
	b.WriteString(`You are a helpful AI assistant for a data visualization platform. Help the user understand their uploaded CSV/XLSX files and recommend chart types and axis columns. Always answer in English and be concise. When recommending a chart, mention the chart type, the X-axis column, the Y-axis column and a brief explanation.`)
	b.WriteString("\n\n")
	if len(files) == 0 {
		b.WriteString("The user has no uploaded files yet; encourage them to upload a CSV or Excel file.\n")
	} else {
		b.WriteString("The user's files:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "- id %d: %s\n", f.ID, f.Filename)
		}
	}
	if analysis != nil && !analysis.Degraded {
		fmt.Fprintf(&b, "\nAnalysis of the mentioned file: chart type %s, X axis %q, Y axis %q, because %s\n",
			analysis.ChartType, analysis.XColumn, analysis.YColumn, analysis.Reason)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}
	fmt.Fprintf(&b, "\nuser: %s\nassistant:", message)
	return b.String()
}

func chatFallback(fileCount int) string {
	if fileCount > 0 {
		return fmt.Sprintf("I am having trouble processing your request right now. I can see you have %d uploaded file(s); would you like me to analyze one of them once the assistant is back?", fileCount)
	}
	return "I am having trouble processing your request right now. Please try again later, or upload a CSV/XLSX file to get started."
}
