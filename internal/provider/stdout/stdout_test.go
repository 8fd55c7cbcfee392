package stdout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shineum/mailout/internal/email"
)

func TestSend_PrintsMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := email.New().
		FromNamed("from@email.com", "Sender").
		To("to@email.com").
		Cc("cc@email.com").
		Subject("subject").
		Text("text body").
		Attach("payload", "file.txt", "text/plain")

	res, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Successful() {
		t.Errorf("result not successful: %v", res)
	}

	out := buf.String()
	for _, want := range []string{
		"From: Sender <from@email.com>",
		"To: to@email.com",
		"Cc: cc@email.com",
		"Subject: subject",
		"text body",
		"file.txt (7 B)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSend_FallsBackToHTMLBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := email.New().
		From("from@email.com").
		To("to@email.com").
		Subject("subject").
		HTML("<p>rich</p>")

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), "<p>rich</p>") {
		t.Errorf("output missing html body:\n%s", buf.String())
	}
}

func TestSend_BuildFailureIsError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := email.New().From("from@email.com").To("to@email.com").Subject("s")
	res, err := p.Send(context.Background(), msg)
	if !errors.Is(err, email.ErrMissingData) {
		t.Fatalf("Send: got %v, want ErrMissingData", err)
	}
	if res.Successful() {
		t.Error("result reported success for build failure")
	}
	if buf.Len() != 0 {
		t.Errorf("output written for build failure: %q", buf.String())
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bytes int
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, c := range cases {
		if got := formatSize(c.bytes); got != c.want {
			t.Errorf("formatSize(%d): got %q, want %q", c.bytes, got, c.want)
		}
	}
}
