package api

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/riskchat/internal/models"
)

// LocalResponder fabricates replies without a backend. Requests about risk
// or data get a canned chart artifact; anything else gets a canned
// introduction.
type LocalResponder struct {
	chartDelay time.Duration
	textDelay  time.Duration
	jitter     time.Duration
	pick       func(n int) int
	logger     *zap.Logger
}

// LocalOption configures a LocalResponder
type LocalOption func(*LocalResponder)

// WithLatency sets the simulated latency for chart and text replies.
// Text replies additionally get up to jitter of random extra delay.
func WithLatency(chart, text, jitter time.Duration) LocalOption {
	return func(l *LocalResponder) {
		l.chartDelay = chart
		l.textDelay = text
		l.jitter = jitter
	}
}

// WithPicker sets the function choosing among canned introductions
func WithPicker(pick func(n int) int) LocalOption {
	return func(l *LocalResponder) {
		l.pick = pick
	}
}

// WithLocalLogger sets the logger
func WithLocalLogger(logger *zap.Logger) LocalOption {
	return func(l *LocalResponder) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocalResponder creates a LocalResponder with browser-like pacing
func NewLocalResponder(opts ...LocalOption) *LocalResponder {
	l := &LocalResponder{
		chartDelay: 2 * time.Second,
		textDelay:  1500 * time.Millisecond,
		jitter:     time.Second,
		pick:       rand.IntN,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Complete answers the most recent user message
func (l *LocalResponder) Complete(ctx context.Context, history []models.Message) (string, error) {
	prompt := strings.ToLower(lastUserMessage(history))

	reply, delay := l.choose(prompt)
	l.logger.Debug("local reply chosen",
		zap.Int("history", len(history)),
		zap.Duration("delay", delay),
	)

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return reply, nil
}

// choose picks the reply and its latency for a lower-cased prompt
func (l *LocalResponder) choose(prompt string) (string, time.Duration) {
	if strings.Contains(prompt, "risk") {
		return riskReply, l.chartDelay
	}

	for _, keyword := range dataKeywords {
		if strings.Contains(prompt, keyword) {
			return salesReply, l.chartDelay
		}
	}

	delay := l.textDelay
	if l.jitter > 0 {
		delay += time.Duration(l.pick(int(l.jitter/time.Millisecond)+1)) * time.Millisecond
	}
	return introReplies[l.pick(len(introReplies))], delay
}

// dataKeywords trigger the sales chart reply
var dataKeywords = []string{"chart", "graph", "visualize", "sales", "data"}

var introReplies = []string{
	"I'm your Risk Analyst Agent. I can help you analyze financial data, assess risks, and create visualizations. Try asking me about sales data, risk analysis, or request a chart!",
	"I understand. As a Risk Analyst Agent, I can query our database and provide insights. What specific data would you like to analyze?",
	"That's an interesting question. I specialize in financial and risk analysis. Would you like me to pull some data from the database to help answer that?",
	"I'm here to help with data analysis and risk assessment. Feel free to ask me to visualize any financial metrics or risk indicators.",
	"As your Risk Analyst Agent, I can access the database and create visualizations. What would you like to explore today?",
}

const riskReply = `Let me analyze the risk data from our database.

[Querying database with: SELECT risk_category, SUM(exposure_amount) as total_exposure FROM risk_data GROUP BY risk_category ORDER BY total_exposure DESC]

Here's the risk exposure breakdown:

` + models.ArtifactStartMarker + `
{
  "type": "artifact",
  "artifact_type": "chart",
  "title": "Risk Exposure by Category",
  "description": "Total exposure amount across different risk categories",
  "data": {
    "chart": {"type": "column"},
    "title": {"text": "Risk Exposure Analysis"},
    "xAxis": {"categories": ["Credit Risk", "Market Risk", "Operational", "Liquidity", "Compliance"]},
    "yAxis": {"title": {"text": "Exposure ($M)"}},
    "series": [{"name": "Exposure Amount", "data": [450, 380, 290, 210, 180], "color": "#D9261C"}],
    "credits": {"enabled": false}
  }
}
` + models.ArtifactEndMarker + `

Key findings: Credit Risk shows the highest exposure at $450M, representing 29% of total risk. I recommend prioritizing mitigation strategies for Credit and Market Risk categories.`

const salesReply = `Let me query the sales data for you.

[Querying database with: SELECT month, SUM(revenue) as total_revenue FROM sales WHERE year = 2024 GROUP BY month ORDER BY month]

Here's the sales performance visualization:

` + models.ArtifactStartMarker + `
{
  "type": "artifact",
  "artifact_type": "chart",
  "title": "Sales Performance 2024",
  "description": "Monthly sales revenue for the current year",
  "data": {
    "chart": {"type": "line"},
    "title": {"text": "Monthly Sales Performance"},
    "xAxis": {"categories": ["Jan", "Feb", "Mar", "Apr", "May", "Jun"]},
    "yAxis": {"title": {"text": "Revenue ($)"}},
    "series": [{"name": "2024 Sales", "data": [45000, 52000, 48000, 61000, 58000, 67000], "color": "#003B70"}],
    "credits": {"enabled": false}
  }
}
` + models.ArtifactEndMarker + `

Analysis: The data shows steady growth with a total revenue of $331,000 over the 6-month period. Notable spike in April (+27% MoM).`
