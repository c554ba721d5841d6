package telemetry

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"vms/backend/config"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(&config.TelemetryConfig{ServiceName: "vms-test"}, zap.NewNop())
	if shutdown == nil {
		t.Fatal("未配置端点时也应返回可调用的 shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("空操作 shutdown 不应返回错误: %v", err)
	}
}
