package featureflags

import "testing"

func TestEnabledFromEnv(t *testing.T) {
	t.Setenv("FLAG_STRICT_TASK_TRANSITIONS", "Yes")
	if !Enabled(StrictTaskTransitions) {
		t.Fatalf("expected flag to be enabled")
	}
	t.Setenv("FLAG_DASHBOARD_STREAM", "0")
	if Enabled(DashboardStream) {
		t.Fatalf("expected flag to be disabled")
	}
}

func TestStatic(t *testing.T) {
	f := Static(DashboardStream)
	if !f(DashboardStream) || f(StrictTaskTransitions) {
		t.Fatalf("unexpected static flag lookup")
	}
}
