package metrics

import "testing"

// TestHTTPStatusClass 测试状态码归类
func TestHTTPStatusClass(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{99, "unknown"},
		{600, "unknown"},
	}
	for _, c := range cases {
		if got := HTTPStatusClass(c.status); got != c.want {
			t.Errorf("HTTPStatusClass(%d) = %s, want %s", c.status, got, c.want)
		}
	}
}

// TestHTTPOutcome 测试结果映射
func TestHTTPOutcome(t *testing.T) {
	if got := HTTPOutcome(200); got != OutcomeSuccess {
		t.Errorf("expected success for 200, got: %s", got)
	}
	if got := HTTPOutcome(302); got != OutcomeSuccess {
		t.Errorf("expected success for 302, got: %s", got)
	}
	if got := HTTPOutcome(400); got != OutcomeError {
		t.Errorf("expected error for 400, got: %s", got)
	}
	if got := HTTPOutcome(503); got != OutcomeError {
		t.Errorf("expected error for 503, got: %s", got)
	}
}
