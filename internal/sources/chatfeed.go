package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
)

const chatFeedPageLimit = 1000 // safety cap on pagination walks

// ChatFeedClient pages through a remote chat-message API:
// GET {base}/channels/{id}/messages?cursor=... returning
// {"messages":[{"speaker":...,"text":...}],"next_cursor":"..."}.
type ChatFeedClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewChatFeedClient creates a chat-feed client for the given base URL.
func NewChatFeedClient(baseURL string, timeout time.Duration) *ChatFeedClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatFeedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatFeedPage struct {
	Messages []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"messages"`
	NextCursor string `json:"next_cursor"`
}

// FetchMessages walks all pages of a channel's message feed in order.
func (c *ChatFeedClient) FetchMessages(ctx context.Context, channelID string) ([]domain.Message, error) {
	var messages []domain.Message
	cursor := ""

	for page := 0; page < chatFeedPageLimit; page++ {
		endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, url.PathEscape(channelID))
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build chat-feed request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch channel %s: status %s", channelID, resp.Status)
		}

		var body chatFeedPage
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode channel %s page: %w", channelID, err)
		}

		for _, m := range body.Messages {
			messages = append(messages, domain.Message{Speaker: m.Speaker, Text: m.Text})
		}

		if body.NextCursor == "" {
			return messages, nil
		}
		cursor = body.NextCursor
	}

	return nil, fmt.Errorf("channel %s: pagination did not terminate after %d pages", channelID, chatFeedPageLimit)
}

// Document builds an ingestible document for one channel. The fetched
// messages are rendered as a "speaker: text" transcript, one line per
// message, which is what gets chunked and embedded.
func (c *ChatFeedClient) Document(channelID string) service.Document {
	return service.Document{
		Source:   domain.SourceChatFeed,
		SourceID: channelID,
		Fetch: func(ctx context.Context) (string, error) {
			messages, err := c.FetchMessages(ctx, channelID)
			if err != nil {
				return "", err
			}
			return Transcript(messages), nil
		},
	}
}

// Transcript renders messages as newline-joined "speaker: text" lines.
func Transcript(messages []domain.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Speaker+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}
