package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// MessageCreator is the subset of the Lark IM message resource the mailer uses
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Mailer implements port.Mailer by sending "post" messages addressed by email
type Mailer struct {
	messages   MessageCreator
	senderName string
	logger     *zap.Logger
}

// NewMailer creates a Lark-backed mailer
func NewMailer(messages MessageCreator, senderName string, logger *zap.Logger) *Mailer {
	return &Mailer{
		messages:   messages,
		senderName: senderName,
		logger:     logger,
	}
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// Send delivers msg as a rich-text post. The plain-text body is used line by line;
// lines that are bare URLs become links.
func (m *Mailer) Send(ctx context.Context, msg port.MailMessage) error {
	if msg.To == "" {
		return apperror.New(apperror.KindValidationFailed, "recipient email is required")
	}

	body, err := buildMessageBody(msg, m.senderName)
	if err != nil {
		return fmt.Errorf("failed to build message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(body).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("to", msg.To),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// buildMessageBody addresses a "post" message to msg.To
func buildMessageBody(msg port.MailMessage, senderName string) (*larkim.CreateMessageReqBody, error) {
	content, err := buildPostContent(msg, senderName)
	if err != nil {
		return nil, err
	}
	return larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(msg.To).
		MsgType("post").
		Content(content).
		Build(), nil
}

func buildPostContent(msg port.MailMessage, senderName string) (string, error) {
	var paragraphs [][]postElement
	for _, line := range strings.Split(strings.TrimSpace(msg.Text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			paragraphs = append(paragraphs, []postElement{{Tag: "a", Text: line, Href: line}})
			continue
		}
		paragraphs = append(paragraphs, []postElement{{Tag: "text", Text: line}})
	}
	if senderName != "" {
		paragraphs = append(paragraphs, []postElement{{Tag: "text", Text: "Sent by " + senderName}})
	}

	data, err := json.Marshal(map[string]postBody{
		"en_us": {Title: msg.Subject, Content: paragraphs},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ port.Mailer = (*Mailer)(nil)
