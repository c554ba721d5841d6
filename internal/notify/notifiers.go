package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// ── 站内信 ──

// InboxNotifier 写入接待人的站内通知
type InboxNotifier struct {
	repo repository.NotificationRepository
}

func NewInboxNotifier(repo repository.NotificationRepository) *InboxNotifier {
	return &InboxNotifier{repo: repo}
}

func (n *InboxNotifier) Name() string { return "inbox" }

func (n *InboxNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.RecipientID == "" {
		return nil
	}
	related := msg.VisitorID
	return n.repo.Create(ctx, &model.Notification{
		UserID:    msg.RecipientID,
		Type:      string(msg.Event),
		Title:     msg.Title,
		Content:   msg.Content,
		RelatedID: &related,
	})
}

// ── Webhook ──

// WebhookNotifier 以 JSON POST 推送到外部系统
type WebhookNotifier struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookNotifier 创建 Webhook 通道，请求经 otelhttp 透传链路上下文
func NewWebhookNotifier(url, token string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook 返回非成功状态码: %d", resp.StatusCode)
	}
	return nil
}

// ── 日志 ──

// LogNotifier 仅写结构化日志，未配置外部通道时兜底
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("访客事件通知",
		zap.String("event", string(msg.Event)),
		zap.String("recipient_id", msg.RecipientID),
		zap.String("visitor_id", msg.VisitorID),
		zap.String("title", msg.Title),
	)
	return nil
}
