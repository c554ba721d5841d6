package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStatusConflict 条件状态更新失败：记录当前状态已不是预期的起始状态
// 用于防止并发审批/签到造成的更新丢失
var ErrStatusConflict = errors.New("记录状态已被其他操作变更")
