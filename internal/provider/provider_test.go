package provider

import "testing"

func TestResultSuccessful(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   bool
	}{
		{200, true},
		{201, true},
		{202, true},
		{299, true},
		{300, false},
		{400, false},
		{500, false},
		{0, false},
	}
	for _, c := range cases {
		r := Result{Status: c.status}
		if got := r.Successful(); got != c.want {
			t.Errorf("Successful() with status %d: got %v, want %v", c.status, got, c.want)
		}
	}
}

func TestResultFactories(t *testing.T) {
	t.Parallel()

	if r := OK(); !r.Successful() || r.MessageID != "" {
		t.Errorf("OK(): got %+v", r)
	}
	if r := OKWithID("abc-123"); !r.Successful() || r.MessageID != "abc-123" {
		t.Errorf("OKWithID(): got %+v", r)
	}
	if r := Fail(); r.Successful() || r.Status != 400 {
		t.Errorf("Fail(): got %+v", r)
	}
	if r := FailWithMessage("boom"); r.Successful() || r.Message != "boom" {
		t.Errorf("FailWithMessage(): got %+v", r)
	}
	if r := FailWithStatus(503, "unavailable"); r.Successful() || r.Status != 503 || r.Message != "unavailable" {
		t.Errorf("FailWithStatus(): got %+v", r)
	}
}

func TestResultString(t *testing.T) {
	t.Parallel()

	r := OKWithID("id-1")
	if got := r.String(); got != "200 [id-1]" {
		t.Errorf("String(): got %q, want %q", got, "200 [id-1]")
	}
}
