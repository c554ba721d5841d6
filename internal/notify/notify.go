package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vms/backend/internal/model"
)

// Event 访客生命周期事件
type Event string

const (
	EventVisitorRegistered Event = "visitor.registered"
	EventVisitorApproved   Event = "visitor.approved"
	EventVisitorRejected   Event = "visitor.rejected"
	EventVisitorCheckedIn  Event = "visitor.checked_in"
	EventVisitorCheckedOut Event = "visitor.checked_out"
)

// Message 发送给各通道的通知内容
type Message struct {
	Event       Event                 `json:"event"`
	RecipientID string                `json:"recipient_id"` // 接待人 user_id
	VisitorID   string                `json:"visitor_id"`
	VisitorName string                `json:"visitor_name"`
	Category    model.VisitorCategory `json:"category"`
	Status      model.VisitorStatus   `json:"status"`
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// Notifier 单个通知通道
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Dispatcher 将事件异步扇出到全部通道
// 任一通道失败只记录日志，不影响其他通道和调用方
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewDispatcher 创建通知分发器
func NewDispatcher(logger *zap.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Dispatch 发送访客事件通知，立即返回
func (d *Dispatcher) Dispatch(event Event, visitor *model.Visitor) {
	if visitor == nil || len(d.notifiers) == 0 {
		return
	}
	msg := BuildMessage(event, visitor, time.Now())

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// 与请求上下文脱钩，请求结束后仍可完成发送
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, n := range d.notifiers {
			if err := n.Notify(ctx, msg); err != nil {
				d.logger.Warn("通知发送失败",
					zap.String("notifier", n.Name()),
					zap.String("event", string(msg.Event)),
					zap.String("visitor_id", msg.VisitorID),
					zap.Error(err),
				)
			}
		}
	}()
}

// Wait 等待所有进行中的发送结束（优雅关闭时调用）
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// BuildMessage 根据事件类型生成通知标题与正文
func BuildMessage(event Event, v *model.Visitor, now time.Time) Message {
	who := v.FullName
	if v.Company != "" {
		who = fmt.Sprintf("%s（%s）", v.FullName, v.Company)
	}

	var title, content string
	switch event {
	case EventVisitorRegistered:
		title = "新访客登记待审批"
		content = fmt.Sprintf("%s 已登记到访，请及时审批。", who)
	case EventVisitorApproved:
		title = "访客已通过审批"
		content = fmt.Sprintf("%s 的到访申请已通过，访问码 %s。", who, v.AccessCode)
	case EventVisitorRejected:
		title = "访客申请已拒绝"
		content = fmt.Sprintf("%s 的到访申请已被拒绝。", who)
		if v.RejectReason != "" {
			content += "原因：" + v.RejectReason
		}
	case EventVisitorCheckedIn:
		title = "访客已到达"
		content = fmt.Sprintf("%s 已签到入场。", who)
	case EventVisitorCheckedOut:
		title = "访客已离开"
		content = fmt.Sprintf("%s 已签退离场。", who)
	default:
		title = string(event)
		content = who
	}

	return Message{
		Event:       event,
		RecipientID: v.HostID,
		VisitorID:   v.VisitorID,
		VisitorName: v.FullName,
		Category:    v.Category,
		Status:      v.Status,
		Title:       title,
		Content:     content,
		OccurredAt:  now,
	}
}
