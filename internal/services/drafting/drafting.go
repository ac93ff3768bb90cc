// Package drafting produces the narrative body of a client status report
// from cached time entries.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"reportflow/internal/metrics"
	"reportflow/internal/models"
)

const (
	maxTokens   = 2000
	temperature = 0.7

	systemPrompt = "You are a professional report writer specializing in client status reports. " +
		"Generate comprehensive, well-structured monthly reports based on time tracking data."
)

var errEmptyCompletion = errors.New("empty completion")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Request describes the report being drafted.
type Request struct {
	ClientName   string
	ReportPeriod string
	Entries      []models.HarvestEntry
}

type Generator struct {
	client *openai.Client
	model  string
	lg     *zap.SugaredLogger
}

// New returns a Generator. Without an API key every draft uses the local template.
func New(cfg Config, lg *zap.SugaredLogger) *Generator {
	g := &Generator{model: cfg.Model, lg: lg}
	if g.model == "" {
		g.model = openai.GPT4
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		g.client = openai.NewClientWithConfig(oc)
	}
	return g
}

func (g *Generator) Enabled() bool { return g.client != nil }

// Draft returns report content and where it came from.
func (g *Generator) Draft(ctx context.Context, req Request) (string, models.ContentSource) {
	groups := Summarize(req.Entries)
	if g.client != nil {
		content, err := g.complete(ctx, req, groups)
		if err == nil {
			metrics.DraftsGenerated.WithLabelValues(string(models.ContentAI)).Inc()
			return content, models.ContentAI
		}
		g.lg.Warnw("ai draft failed, using template", "client", req.ClientName, "error", err)
	}
	metrics.DraftsGenerated.WithLabelValues(string(models.ContentTemplate)).Inc()
	return RenderTemplate(req.ClientName, req.ReportPeriod, groups), models.ContentTemplate
}

func (g *Generator) complete(ctx context.Context, req Request, groups []Group) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req.ClientName, req.ReportPeriod, groups)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyCompletion
	}
	return content, nil
}

func buildPrompt(client, period string, groups []Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a professional monthly status report for %s for the period %s.\n\n", client, period)
	b.WriteString("Based on the following time tracking data:\n\n")
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Project: %s\nTask: %s\nTotal Hours: %s\nDetails:\n", g.Project, g.Task, hours(g.TotalHours))
		if len(g.Notes) == 0 {
			b.WriteString("- No specific notes recorded\n")
		}
		for _, n := range g.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	b.WriteString(`
Please structure the report with these sections:
1. **Completed Projects & Results**: Summarize the work completed, organized by project/task with key achievements and deliverables
2. **Action Items for TEG**: List any follow-up actions or next steps for our team
3. **Action Items for Client**: List any actions required from the client

Use professional, client-friendly language, focus on outcomes and deliverables, and format the output as clean text with headings and bullet points.`)
	return b.String()
}

// RenderTemplate builds a plain-text report with the same sections the AI
// prompt asks for.
func RenderTemplate(client, period string, groups []Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MONTHLY STATUS REPORT\nClient: %s\nPeriod: %s\n\n", client, period)

	b.WriteString("COMPLETED PROJECTS & RESULTS\n")
	if len(groups) == 0 {
		b.WriteString("- No tracked activity for this period.\n")
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s - %s (%s hours)\n", g.Project, g.Task, hours(g.TotalHours))
		for _, n := range g.Notes {
			fmt.Fprintf(&b, "  - %s\n", n)
		}
	}
	if len(groups) > 0 {
		fmt.Fprintf(&b, "\nTotal hours: %s\n", hours(totalHours(groups)))
	}

	b.WriteString("\nACTION ITEMS FOR TEG\n")
	for _, p := range projects(groups) {
		fmt.Fprintf(&b, "- Continue work on %s and report progress next period.\n", p)
	}
	b.WriteString("- Schedule a review of this report with the client.\n")

	b.WriteString("\nACTION ITEMS FOR CLIENT\n")
	b.WriteString("- Review the completed work and share feedback.\n")
	b.WriteString("- Confirm priorities for the next reporting period.\n")
	return b.String()
}

func hours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}
