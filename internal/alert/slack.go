package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

const (
	maxHeaderChars  = 150
	maxSectionChars = 3000
	maxBodySections = 45
	codeFence       = "```"
)

type SlackDispatcher struct {
	api       *slack.Client
	channelID string
	now       func() time.Time
}

func NewSlackDispatcher(cfg config.SlackConfig, options ...slack.Option) *SlackDispatcher {
	return &SlackDispatcher{
		api:       slack.New(cfg.BotToken, options...),
		channelID: cfg.ChannelID,
		now:       time.Now,
	}
}

func (d *SlackDispatcher) Name() string {
	return "slack"
}

func (d *SlackDispatcher) Send(ctx context.Context, subject, body string) error {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			"plain_text",
			fmt.Sprintf("🔴 %s", truncate(subject, maxHeaderChars-2)),
			false, false,
		)),
		slack.NewDividerBlock(),
	}

	chunks := chunkRunes(body, maxSectionChars-2*len(codeFence)-2)
	truncated := false
	if len(chunks) > maxBodySections {
		chunks = chunks[:maxBodySections]
		truncated = true
	}
	for _, c := range chunks {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", codeFence+"\n"+c+"\n"+codeFence, false, false),
			nil, nil,
		))
	}

	footer := fmt.Sprintf("Sent at: %s", d.now().Format(time.RFC1123))
	if truncated {
		footer += " (truncated, see the saved email artifact for the full text)"
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("mrkdwn", footer, false, false),
	))

	_, msgTimestamp, err := d.api.PostMessageContext(
		ctx,
		d.channelID,
		slack.MsgOptionText(subject, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		log.Err(err).Str("channel", d.channelID).Msg("Failed to post Slack message")
		return fmt.Errorf("slack error: %w", err)
	}

	log.Info().
		Str("channel", d.channelID).
		Str("timestamp", msgTimestamp).
		Msg("Alert posted to Slack")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// chunkRunes splits s into pieces of at most n runes. Empty input yields no
// chunks.
func chunkRunes(s string, n int) []string {
	var chunks []string
	r := []rune(s)
	for len(r) > 0 {
		end := n
		if end > len(r) {
			end = len(r)
		}
		chunks = append(chunks, string(r[:end]))
		r = r[end:]
	}
	return chunks
}
