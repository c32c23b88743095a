package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// maxReportedErrors caps the adapter errors listed in one message.
const maxReportedErrors = 5

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts run reports to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each report to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Block Kit message per report. Idle cycles are skipped.
func (s *SlackNotifier) Notify(report model.RunReport) error {
	if report.Idle() {
		s.logger.Debug("idle cycle, skipping slack report")
		return nil
	}

	body, err := json.Marshal(buildPayload(report))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := model.ParseRetryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			wait = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", wait.String())
		time.Sleep(wait)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack report sent", "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack report sent")
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample report to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	return n.Notify(model.RunReport{
		StartedAt: time.Now(),
		Duration:  42 * time.Second,
		Ingest: model.IngestResult{
			Fetched:   120,
			New:       7,
			Duplicate: 110,
			Filtered:  3,
			Errors:    []string{},
		},
		Batches: []model.BatchResult{{Processed: 7, Enriched: 6, Failed: 1, Remaining: 0}},
	})
}

func field(label string, v int) slackText {
	return slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s:*\n%d", label, v)}
}

func buildPayload(r model.RunReport) slackPayload {
	t := r.Totals()

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("📇 jobdeck: %d new, %d enriched", r.Ingest.New, t.Enriched)},
		},
		{
			Type: "section",
			Fields: []slackText{
				field("Fetched", r.Ingest.Fetched),
				field("New", r.Ingest.New),
				field("Duplicate", r.Ingest.Duplicate),
				field("Filtered", r.Ingest.Filtered),
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				field("Processed", t.Processed),
				field("Enriched", t.Enriched),
				field("Failed", t.Failed),
				field("Remaining", t.Remaining),
			},
		},
	}

	if r.Stuck > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("⚠️ *%d records stuck in processing.* Run `jobdeck queue stuck` to inspect.", r.Stuck)},
		})
	}

	if len(r.Ingest.Errors) > 0 {
		errs := r.Ingest.Errors
		more := ""
		if len(errs) > maxReportedErrors {
			more = fmt.Sprintf("\n…and %d more", len(errs)-maxReportedErrors)
			errs = errs[:maxReportedErrors]
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Adapter errors:*\n• " + strings.Join(errs, "\n• ") + more},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("Started %s · took %s", r.StartedAt.UTC().Format(time.RFC1123), r.Duration.Round(time.Second))},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
