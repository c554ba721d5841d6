package service

import (
	"errors"
	"time"

	"vms/backend/internal/model"
)

// ── 状态流转错误 ──

var (
	ErrInvalidTransition      = errors.New("当前状态不允许该操作")
	ErrTransitionUnauthorized = errors.New("当前角色无权执行该操作")
	ErrTrainingIncomplete     = errors.New("承包商尚未完成必修安全培训")
)

// TransitionContext 单次状态流转的外部输入
// 由调用方按请求显式传入，Transition 不读取任何全局状态
type TransitionContext struct {
	ActorID          string
	ActorRole        model.Role
	Now              time.Time
	TrainingRequired bool
}

// transitionRule 动作的起止状态
type transitionRule struct {
	from model.VisitorStatus
	to   model.VisitorStatus
}

var transitionRules = map[model.VisitorAction]transitionRule{
	model.ActionApprove:  {from: model.StatusPending, to: model.StatusApproved},
	model.ActionReject:   {from: model.StatusPending, to: model.StatusCancelled},
	model.ActionCheckIn:  {from: model.StatusApproved, to: model.StatusCheckedIn},
	model.ActionCheckOut: {from: model.StatusCheckedIn, to: model.StatusCheckedOut},
}

// Transition 计算访客记录执行 action 后的新记录
//
// 校验顺序：
//   - 未知动作 → ErrInvalidTransition
//   - check_in：承包商且要求培训但未完成 → ErrTrainingIncomplete（先于状态校验）
//   - 当前状态不是动作的起始状态 → ErrInvalidTransition
//   - approve / reject：角色不是 admin 或 manager → ErrTransitionUnauthorized
//
// 返回新对象，入参 visitor 不会被修改；不做持久化也不发通知。
func Transition(visitor *model.Visitor, action model.VisitorAction, tc TransitionContext) (*model.Visitor, error) {
	if visitor == nil {
		return nil, ErrVisitorNotFound
	}

	rule, ok := transitionRules[action]
	if !ok {
		return nil, ErrInvalidTransition
	}

	if action == model.ActionCheckIn && tc.TrainingRequired &&
		visitor.IsContractor() && !visitor.TrainingCompleted {
		return nil, ErrTrainingIncomplete
	}

	if visitor.Status != rule.from {
		return nil, ErrInvalidTransition
	}

	if (action == model.ActionApprove || action == model.ActionReject) && !tc.ActorRole.CanApprove() {
		return nil, ErrTransitionUnauthorized
	}

	next := *visitor
	next.Status = rule.to
	now := tc.Now

	switch action {
	case model.ActionApprove:
		next.ApprovedAt = &now
		if tc.ActorID != "" {
			actor := tc.ActorID
			next.ApprovedBy = &actor
		}
	case model.ActionCheckIn:
		next.CheckInTime = &now
	case model.ActionCheckOut:
		next.CheckOutTime = &now
	}

	return &next, nil
}
