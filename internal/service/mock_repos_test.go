package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"vms/backend/internal/model"
	"vms/backend/internal/notify"
	"vms/backend/internal/repository"
	pkgerrors "vms/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if filter.Role != "" && string(u.Role) != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ListHosts(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock VisitorRepository ──

type mockVisitorRepo struct {
	visitors map[string]*model.Visitor
	seq      int

	// 注入错误，模拟并发或数据库故障
	statusErr error
}

func newMockVisitorRepo() *mockVisitorRepo {
	return &mockVisitorRepo{visitors: make(map[string]*model.Visitor)}
}

func (m *mockVisitorRepo) Create(_ context.Context, v *model.Visitor) error {
	if v.VisitorID == "" {
		m.seq++
		v.VisitorID = fmt.Sprintf("visitor-%03d", m.seq)
	}
	if v.Version == 0 {
		v.Version = 1
	}
	cp := *v
	m.visitors[v.VisitorID] = &cp
	return nil
}

func (m *mockVisitorRepo) GetByID(_ context.Context, id string) (*model.Visitor, error) {
	if v, ok := m.visitors[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVisitorRepo) GetByAccessCode(_ context.Context, code string) (*model.Visitor, error) {
	for _, v := range m.visitors {
		if v.AccessCode == code {
			cp := *v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVisitorRepo) List(_ context.Context, filter repository.VisitorFilter) ([]model.Visitor, int64, error) {
	var result []model.Visitor
	for _, v := range m.visitors {
		if filter.Status != "" && string(v.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && string(v.Category) != filter.Category {
			continue
		}
		if filter.HostID != "" && v.HostID != filter.HostID {
			continue
		}
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VisitorID < result[j].VisitorID })
	return result, int64(len(result)), nil
}

func (m *mockVisitorRepo) Update(_ context.Context, v *model.Visitor) error {
	stored, ok := m.visitors[v.VisitorID]
	if !ok || stored.Version != v.Version {
		return pkgerrors.ErrOptimisticLock
	}
	v.Version++
	cp := *v
	m.visitors[v.VisitorID] = &cp
	return nil
}

func (m *mockVisitorRepo) UpdateStatus(_ context.Context, v *model.Visitor, from model.VisitorStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	stored, ok := m.visitors[v.VisitorID]
	if !ok || stored.Status != from {
		return pkgerrors.ErrStatusConflict
	}
	stored.Status = v.Status
	stored.CheckInTime = v.CheckInTime
	stored.CheckOutTime = v.CheckOutTime
	stored.ApprovedBy = v.ApprovedBy
	stored.ApprovedAt = v.ApprovedAt
	stored.RejectReason = v.RejectReason
	stored.TrainingCompleted = v.TrainingCompleted
	stored.UpdatedBy = v.UpdatedBy
	stored.Version++
	return nil
}

func (m *mockVisitorRepo) UpdateTrainingCompleted(_ context.Context, id string, completed bool) error {
	v, ok := m.visitors[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.TrainingCompleted = completed
	return nil
}

func (m *mockVisitorRepo) CountByStatus(_ context.Context) ([]repository.StatusCount, error) {
	counts := make(map[model.VisitorStatus]int64)
	for _, v := range m.visitors {
		counts[v.Status]++
	}
	var result []repository.StatusCount
	for status, n := range counts {
		result = append(result, repository.StatusCount{Status: status, Count: n})
	}
	return result, nil
}

func (m *mockVisitorRepo) CountCheckedInSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, v := range m.visitors {
		if v.CheckInTime != nil && !v.CheckInTime.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockVisitorRepo) CountOnSite(_ context.Context, category model.VisitorCategory) (int64, error) {
	var n int64
	for _, v := range m.visitors {
		if v.Status != model.StatusCheckedIn {
			continue
		}
		if category != "" && v.Category != category {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockVisitorRepo) ListForExport(_ context.Context, from, to time.Time) ([]model.Visitor, error) {
	var result []model.Visitor
	for _, v := range m.visitors {
		if v.CreatedAt.Before(from) || !v.CreatedAt.Before(to) {
			continue
		}
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ── Mock VisitorDocumentRepository ──

type mockDocumentRepo struct {
	docs map[string]*model.VisitorDocument
	seq  int
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]*model.VisitorDocument)}
}

func (m *mockDocumentRepo) Create(_ context.Context, doc *model.VisitorDocument) error {
	if doc.DocumentID == "" {
		m.seq++
		doc.DocumentID = fmt.Sprintf("doc-%03d", m.seq)
	}
	m.docs[doc.DocumentID] = doc
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.VisitorDocument, error) {
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) ListByVisitor(_ context.Context, visitorID string) ([]model.VisitorDocument, error) {
	var result []model.VisitorDocument
	for _, d := range m.docs {
		if d.VisitorID == visitorID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocumentID < result[j].DocumentID })
	return result, nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

// ── Mock VisitorStatusLogRepository ──

type mockStatusLogRepo struct {
	logs []model.VisitorStatusLog
}

func newMockStatusLogRepo() *mockStatusLogRepo {
	return &mockStatusLogRepo{}
}

func (m *mockStatusLogRepo) Create(_ context.Context, log *model.VisitorStatusLog) error {
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%03d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockStatusLogRepo) ListByVisitor(_ context.Context, visitorID string) ([]model.VisitorStatusLog, error) {
	var result []model.VisitorStatusLog
	for _, l := range m.logs {
		if l.VisitorID == visitorID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock TrainingRepository ──

type mockTrainingRepo struct {
	trainings map[string]*model.Training
	seq       int
}

func newMockTrainingRepo() *mockTrainingRepo {
	return &mockTrainingRepo{trainings: make(map[string]*model.Training)}
}

func (m *mockTrainingRepo) Create(_ context.Context, t *model.Training) error {
	if t.TrainingID == "" {
		m.seq++
		t.TrainingID = fmt.Sprintf("training-%03d", m.seq)
	}
	m.trainings[t.TrainingID] = t
	return nil
}

func (m *mockTrainingRepo) GetByID(_ context.Context, id string) (*model.Training, error) {
	if t, ok := m.trainings[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTrainingRepo) GetByIDs(_ context.Context, ids []string) ([]model.Training, error) {
	var result []model.Training
	for _, id := range ids {
		if t, ok := m.trainings[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTrainingRepo) List(_ context.Context, includeInactive bool) ([]model.Training, error) {
	var result []model.Training
	for _, t := range m.trainings {
		if !includeInactive && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TrainingID < result[j].TrainingID })
	return result, nil
}

func (m *mockTrainingRepo) Update(_ context.Context, t *model.Training) error {
	m.trainings[t.TrainingID] = t
	return nil
}

func (m *mockTrainingRepo) Delete(_ context.Context, id string) error {
	delete(m.trainings, id)
	return nil
}

// ── Mock TrainingEnrollmentRepository ──

// 关联 Training 从 trainings 实时读取，模拟 Preload
type mockEnrollmentRepo struct {
	enrollments map[string]*model.TrainingEnrollment // key: visitorID|trainingID
	trainings   *mockTrainingRepo
	listErr     error
}

func newMockEnrollmentRepo(trainings *mockTrainingRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{
		enrollments: make(map[string]*model.TrainingEnrollment),
		trainings:   trainings,
	}
}

func enrollmentKey(visitorID, trainingID string) string {
	return visitorID + "|" + trainingID
}

func (m *mockEnrollmentRepo) withTraining(e *model.TrainingEnrollment) *model.TrainingEnrollment {
	cp := *e
	cp.Training = m.trainings.trainings[e.TrainingID]
	return &cp
}

func (m *mockEnrollmentRepo) BatchCreate(_ context.Context, enrollments []model.TrainingEnrollment) error {
	for i := range enrollments {
		e := enrollments[i]
		key := enrollmentKey(e.VisitorID, e.TrainingID)
		if _, ok := m.enrollments[key]; ok {
			return fmt.Errorf("duplicate enrollment %s", key)
		}
		if e.EnrollmentID == "" {
			e.EnrollmentID = "enroll-" + key
		}
		e.Training = nil
		m.enrollments[key] = &e
	}
	return nil
}

func (m *mockEnrollmentRepo) GetByVisitorAndTraining(_ context.Context, visitorID, trainingID string) (*model.TrainingEnrollment, error) {
	if e, ok := m.enrollments[enrollmentKey(visitorID, trainingID)]; ok {
		return m.withTraining(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByVisitor(_ context.Context, visitorID string) ([]model.TrainingEnrollment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.TrainingEnrollment
	for _, e := range m.enrollments {
		if e.VisitorID == visitorID {
			result = append(result, *m.withTraining(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TrainingID < result[j].TrainingID })
	return result, nil
}

func (m *mockEnrollmentRepo) Update(_ context.Context, e *model.TrainingEnrollment) error {
	key := enrollmentKey(e.VisitorID, e.TrainingID)
	if _, ok := m.enrollments[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *e
	cp.Training = nil
	m.enrollments[key] = &cp
	return nil
}

// ── Mock SystemSettingRepository ──

type mockSettingRepo struct {
	setting *model.SystemSetting
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{setting: &model.SystemSetting{
		Singleton:               true,
		TrainingRequired:        true,
		AutoApprovePrescheduled: true,
		SiteName:                "Main Site",
	}}
}

func (m *mockSettingRepo) Get(_ context.Context) (*model.SystemSetting, error) {
	cp := *m.setting
	return &cp, nil
}

func (m *mockSettingRepo) Update(_ context.Context, setting *model.SystemSetting) error {
	cp := *setting
	m.setting = &cp
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("notif-%03d", len(m.items)+1)
	}
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead && (len(ids) == 0 || want[item.NotificationID]) {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

// ── Mock EventDispatcher ──

type dispatchedEvent struct {
	Event     notify.Event
	VisitorID string
	Status    model.VisitorStatus
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []dispatchedEvent
}

func (m *mockDispatcher) Dispatch(event notify.Event, v *model.Visitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{Event: event, VisitorID: v.VisitorID, Status: v.Status})
}

func (m *mockDispatcher) last() (dispatchedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return dispatchedEvent{}, false
	}
	return m.events[len(m.events)-1], true
}

// ── 聚合 ──

type mockRepos struct {
	users         *mockUserRepo
	visitors      *mockVisitorRepo
	documents     *mockDocumentRepo
	logs          *mockStatusLogRepo
	trainings     *mockTrainingRepo
	enrollments   *mockEnrollmentRepo
	settings      *mockSettingRepo
	notifications *mockNotificationRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	trainings := newMockTrainingRepo()
	m := &mockRepos{
		users:         newMockUserRepo(),
		visitors:      newMockVisitorRepo(),
		documents:     newMockDocumentRepo(),
		logs:          newMockStatusLogRepo(),
		trainings:     trainings,
		enrollments:   newMockEnrollmentRepo(trainings),
		settings:      newMockSettingRepo(),
		notifications: newMockNotificationRepo(),
	}
	repo := &repository.Repository{
		User:               m.users,
		Visitor:            m.visitors,
		VisitorDocument:    m.documents,
		VisitorStatusLog:   m.logs,
		Training:           m.trainings,
		TrainingEnrollment: m.enrollments,
		SystemSetting:      m.settings,
		Notification:       m.notifications,
	}
	return repo, m
}

// ── 测试数据 ──

func seedHost(m *mockRepos, id, name string, role model.Role) *model.User {
	u := &model.User{
		UserID:   id,
		Name:     name,
		Email:    id + "@example.com",
		Role:     role,
		IsActive: true,
	}
	u.Version = 1
	m.users.users[id] = u
	return u
}

func seedVisitor(m *mockRepos, id string, category model.VisitorCategory, status model.VisitorStatus) *model.Visitor {
	v := &model.Visitor{
		VisitorID:       id,
		Category:        category,
		Status:          status,
		FullName:        "访客 " + id,
		HostID:          "host-1",
		AccessCode:      "CODE" + id[len(id)-4:],
		ExpectedMinutes: 60,
	}
	v.Version = 1
	v.CreatedAt = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	m.visitors.visitors[id] = v
	return v
}

func seedTraining(m *mockRepos, id string, requiredScore int, active bool) *model.Training {
	t := &model.Training{
		TrainingID:    id,
		Title:         "培训 " + id,
		RequiredScore: requiredScore,
		IsActive:      active,
	}
	m.trainings.trainings[id] = t
	return t
}

func seedEnrollment(m *mockRepos, visitorID, trainingID string, score *int) {
	m.enrollments.enrollments[enrollmentKey(visitorID, trainingID)] = &model.TrainingEnrollment{
		EnrollmentID: "enroll-" + visitorID + "-" + trainingID,
		VisitorID:    visitorID,
		TrainingID:   trainingID,
		Score:        score,
	}
}

func intPtr(n int) *int { return &n }
