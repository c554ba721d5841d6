package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelsWrap(t *testing.T) {
	wrapped := fmt.Errorf("更新访客失败: %w", ErrStatusConflict)
	if !errors.Is(wrapped, ErrStatusConflict) {
		t.Error("包装后应仍可识别 ErrStatusConflict")
	}
	if errors.Is(wrapped, ErrOptimisticLock) {
		t.Error("ErrStatusConflict 不应被识别为 ErrOptimisticLock")
	}
}
