package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"vms/backend/internal/model"
)

// ── 测试用通道 ──

type recordingNotifier struct {
	mu       sync.Mutex
	messages []Message
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }

func (failingNotifier) Notify(context.Context, Message) error {
	return errors.New("通道不可用")
}

type memNotificationRepo struct {
	created []model.Notification
}

func (r *memNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.created = append(r.created, *n)
	return nil
}

func (r *memNotificationRepo) ListByUser(context.Context, string, bool, int, int) ([]model.Notification, int64, error) {
	return r.created, int64(len(r.created)), nil
}

func (r *memNotificationRepo) MarkRead(context.Context, string, []string) (int64, error) {
	return 0, nil
}

func (r *memNotificationRepo) CountUnread(context.Context, string) (int64, error) {
	return int64(len(r.created)), nil
}

func testVisitor() *model.Visitor {
	return &model.Visitor{
		VisitorID:  "v-1",
		Category:   model.CategoryContractor,
		Status:     model.StatusApproved,
		FullName:   "张三",
		Company:    "安建工程",
		HostID:     "host-1",
		AccessCode: "AB12CD34",
	}
}

// ── Dispatcher ──

func TestDispatch_FailingNotifierDoesNotBlockOthers(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(zap.NewNop(), time.Second, failingNotifier{}, rec)

	d.Dispatch(EventVisitorApproved, testVisitor())
	d.Wait()

	if len(rec.messages) != 1 {
		t.Fatalf("期望 1 条通知，实际: %d", len(rec.messages))
	}
	msg := rec.messages[0]
	if msg.RecipientID != "host-1" {
		t.Errorf("期望接收人 host-1，实际: %s", msg.RecipientID)
	}
	if !strings.Contains(msg.Content, "AB12CD34") {
		t.Errorf("审批通知应包含访问码，实际: %s", msg.Content)
	}
}

func TestDispatch_NilVisitorIgnored(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(zap.NewNop(), time.Second, rec)

	d.Dispatch(EventVisitorApproved, nil)
	d.Wait()

	if len(rec.messages) != 0 {
		t.Errorf("nil 访客不应发送通知，实际: %d", len(rec.messages))
	}
}

func TestBuildMessage_RejectReason(t *testing.T) {
	v := testVisitor()
	v.RejectReason = "资质不全"

	msg := BuildMessage(EventVisitorRejected, v, time.Now())
	if !strings.Contains(msg.Content, "资质不全") {
		t.Errorf("拒绝通知应包含原因，实际: %s", msg.Content)
	}
}

// ── 通道 ──

func TestInboxNotifier_PersistsForHost(t *testing.T) {
	repo := &memNotificationRepo{}
	n := NewInboxNotifier(repo)

	msg := BuildMessage(EventVisitorRegistered, testVisitor(), time.Now())
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify 失败: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("期望写入 1 条站内信，实际: %d", len(repo.created))
	}
	got := repo.created[0]
	if got.UserID != "host-1" || got.Type != string(EventVisitorRegistered) {
		t.Errorf("站内信字段不正确: %+v", got)
	}
	if got.RelatedID == nil || *got.RelatedID != "v-1" {
		t.Errorf("期望 related_id=v-1")
	}
}

func TestWebhookNotifier_PostsJSONWithBearer(t *testing.T) {
	var gotAuth string
	var gotMsg Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotMsg)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "secret-token", time.Second)
	msg := BuildMessage(EventVisitorCheckedIn, testVisitor(), time.Now())
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify 失败: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("期望 Bearer 鉴权头，实际: %q", gotAuth)
	}
	if gotMsg.Event != EventVisitorCheckedIn || gotMsg.VisitorID != "v-1" {
		t.Errorf("Webhook 负载不正确: %+v", gotMsg)
	}
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "", time.Second)
	if err := n.Notify(context.Background(), Message{Event: EventVisitorCheckedOut}); err == nil {
		t.Error("期望非 2xx 返回错误")
	}
}
