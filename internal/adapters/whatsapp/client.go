package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
)

// Client hands composed messages to an HTTP messaging gateway. Without a
// gateway URL it only logs the deep link, which is what the storefront opens.
type Client struct {
	httpClient *http.Client
	gatewayURL string
	token      string
	logger     observability.Logger
}

func NewClient(gatewayURL, token string, logger observability.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		gatewayURL: gatewayURL,
		token:      token,
		logger:     logger,
	}
}

type sendRequest struct {
	Phone    string `json:"phone"`
	Text     string `json:"text"`
	Link     string `json:"link"`
	TicketID string `json:"ticket_id"`
	Audience string `json:"audience"`
}

func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	log := c.logger.WithField("ticket_id", msg.TicketID).WithField("audience", msg.Audience)
	if c.gatewayURL == "" {
		log.WithField("link", msg.Link).Info("whatsapp link ready")
		return nil
	}

	body, err := json.Marshal(sendRequest{
		Phone:    msg.Phone,
		Text:     msg.Text,
		Link:     msg.Link,
		TicketID: msg.TicketID,
		Audience: string(msg.Audience),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build whatsapp request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send whatsapp message")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("whatsapp gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	log.Debug("whatsapp message sent")
	return nil
}
