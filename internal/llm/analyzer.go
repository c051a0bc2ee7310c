package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
)

// maxAnalysisRunes bounds the transcript sent to the model.
const maxAnalysisRunes = 24000

const analysisSystemPrompt = `You analyze meeting transcripts.
Respond with one JSON object and nothing else, using exactly these keys:
{
  "summary": "3-5 sentence summary of the meeting",
  "action_items": ["who does what, with deadline if stated"],
  "decisions": ["each decision that was agreed"],
  "timeline": [{"when": "date or deadline as stated", "context": "what happens then"}],
  "participants": ["names of people who spoke or were assigned work"]
}
Use empty arrays when nothing applies. Do not invent content that is not in the transcript.`

// Analyzer extracts a summary, action items, decisions, timeline entries and
// participants from a transcript using a chat model.
type Analyzer struct {
	client *Client
	params ChatParams
}

// NewAnalyzer creates an Analyzer backed by client.
func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{
		client: client,
		params: ChatParams{Temperature: 0.1, MaxTokens: 2048, JSON: true},
	}
}

// Analyze runs the analysis. A transcript that is blank after trimming
// yields an empty Analysis without calling the model.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (meeting.Analysis, error) {
	logger := contextutil.LoggerFromContext(ctx)

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return meeting.Analysis{}, nil
	}
	if runes := []rune(transcript); len(runes) > maxAnalysisRunes {
		logger.WarnContext(ctx, "truncating transcript for analysis", "runes", len(runes), "limit", maxAnalysisRunes)
		transcript = string(runes[:maxAnalysisRunes])
	}

	messages := []Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: "Transcript:\n\n" + transcript},
	}

	reply, err := a.client.Chat(ctx, messages, a.params)
	if err != nil {
		return meeting.Analysis{}, fmt.Errorf("failed to analyze transcript: %w", err)
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		logger.ErrorContext(ctx, "model returned unparseable analysis", "error", err, "reply_len", len(reply))
		return meeting.Analysis{}, err
	}

	logger.DebugContext(ctx, "transcript analyzed",
		"action_items", len(analysis.ActionItems),
		"decisions", len(analysis.Decisions),
		"timeline", len(analysis.Timeline),
	)
	return analysis, nil
}

// rawAnalysis accepts timeline entries either as objects or as plain strings.
type rawAnalysis struct {
	Summary      string            `json:"summary"`
	ActionItems  []string          `json:"action_items"`
	Decisions    []string          `json:"decisions"`
	Timeline     []json.RawMessage `json:"timeline"`
	Participants []string          `json:"participants"`
}

func parseAnalysis(reply string) (meeting.Analysis, error) {
	body := extractJSONObject(reply)
	if body == "" {
		return meeting.Analysis{}, fmt.Errorf("no JSON object in model reply")
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return meeting.Analysis{}, fmt.Errorf("failed to decode analysis: %w", err)
	}

	analysis := meeting.Analysis{
		Summary:      strings.TrimSpace(raw.Summary),
		ActionItems:  trimAll(raw.ActionItems),
		Decisions:    trimAll(raw.Decisions),
		Participants: trimAll(raw.Participants),
	}
	for _, item := range raw.Timeline {
		var entry meeting.TimelineEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			var text string
			if err := json.Unmarshal(item, &text); err != nil {
				continue
			}
			entry = meeting.TimelineEntry{When: text}
		}
		if entry.Text() != "" {
			analysis.Timeline = append(analysis.Timeline, entry)
		}
	}
	return analysis, nil
}

// extractJSONObject returns the outermost {...} span of s, which strips
// markdown code fences and any prose around the object.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func trimAll(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
