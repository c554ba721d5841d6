package service

import (
	"context"

	"go.uber.org/zap"

	"vms/backend/internal/repository"
)

// TrainingGate 培训完成度判定
type TrainingGate interface {
	// IsTrainingSatisfied required 为 false 时恒为 true；
	// 否则要求每一门仍在启用的已分配课程都有不低于及格线的成绩。
	// 未分配任何有效课程视为满足，并记录告警。
	IsTrainingSatisfied(ctx context.Context, visitorID string, required bool) (bool, error)
}

type trainingGate struct {
	enrollments repository.TrainingEnrollmentRepository
	logger      *zap.Logger
}

// NewTrainingGate 创建 TrainingGate 实例（只读）
func NewTrainingGate(enrollments repository.TrainingEnrollmentRepository, logger *zap.Logger) TrainingGate {
	return &trainingGate{enrollments: enrollments, logger: logger}
}

func (g *trainingGate) IsTrainingSatisfied(ctx context.Context, visitorID string, required bool) (bool, error) {
	if !required {
		return true, nil
	}

	list, err := g.enrollments.ListByVisitor(ctx, visitorID)
	if err != nil {
		return false, err
	}

	counted := 0
	for i := range list {
		t := list[i].Training
		// 已停用或已删除的课程不计入
		if t == nil || !t.IsActive || t.DeletedAt.Valid {
			continue
		}
		counted++
		if !list[i].Satisfied() {
			return false, nil
		}
	}
	if counted == 0 {
		g.logger.Warn("承包商未分配任何有效培训，按已满足处理", zap.String("visitor_id", visitorID))
	}
	return true, nil
}
