package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"device-lending-api/logger"

	"golang.org/x/sync/errgroup"
)

const sendgridBaseURL = "https://api.sendgrid.com"

// SendGrid talks to the v3 mail/send endpoint directly. Every message also
// fans out a copy to the host (admin) address when one is configured.
type SendGrid struct {
	log       *logger.Logger
	apiKey    string
	fromEmail string
	hostEmail string
	baseURL   string
	client    *http.Client
}

func NewSendGrid(log *logger.Logger, apiKey, fromEmail, hostEmail string) *SendGrid {
	return &SendGrid{
		log:       log.With("client", "sendgrid"),
		apiKey:    apiKey,
		fromEmail: fromEmail,
		hostEmail: hostEmail,
		baseURL:   sendgridBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SendGrid v3 wire types.
type sgAddress struct {
	Email string `json:"email"`
}
type sgPersonalization struct {
	To []sgAddress `json:"to"`
}
type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
type sgMailSend struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	recipients := []string{msg.To}
	if s.hostEmail != "" && !strings.EqualFold(s.hostEmail, msg.To) {
		recipients = append(recipients, s.hostEmail)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, to := range recipients {
		to := to
		g.Go(func() error { return s.sendOne(ctx, to, msg) })
	}
	return g.Wait()
}

func (s *SendGrid) sendOne(ctx context.Context, to string, msg Message) error {
	wire := sgMailSend{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: to}}}},
		From:             sgAddress{Email: s.fromEmail},
		Subject:          msg.Subject,
		Content:          []sgContent{{Type: "text/html", Value: msg.HTML}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(wire); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	s.log.Debug("mail sent", "event", string(msg.Event), "status", resp.StatusCode)
	return nil
}
