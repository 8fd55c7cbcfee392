package smtp

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/mailout/internal/email"
)

func testMessage() *email.Message {
	return email.New().
		To("to@email.com").
		Subject("subject").
		Text("body")
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Port: 587}); err == nil {
		t.Error("expected error for missing host")
	}
	if _, err := New(Config{Host: "mail.example.com"}); err == nil {
		t.Error("expected error for missing port")
	}
	if _, err := New(Config{Host: "mail.example.com", Port: 587}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSend_EnvelopeCoversAllKinds(t *testing.T) {
	t.Parallel()

	var (
		gotFrom  string
		gotRcpts []string
		gotBody  []byte
	)
	p, err := newWithSender(Config{
		Host:        "mail.example.com",
		Port:        587,
		DefaultFrom: "from@email.com",
	}, func(_ string, _ sasl.Client, from string, to []string, r io.Reader) error {
		gotFrom = from
		gotRcpts = to
		gotBody, _ = io.ReadAll(r)
		return nil
	})
	if err != nil {
		t.Fatalf("newWithSender: %v", err)
	}

	msg := testMessage().Cc("cc@email.com").Bcc("bcc@email.com")
	res, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Successful() {
		t.Errorf("result not successful: %v", res)
	}

	if gotFrom != "from@email.com" {
		t.Errorf("envelope from: got %q", gotFrom)
	}
	want := []string{"to@email.com", "cc@email.com", "bcc@email.com"}
	if len(gotRcpts) != len(want) {
		t.Fatalf("envelope rcpts: got %v, want %v", gotRcpts, want)
	}
	for i := range want {
		if gotRcpts[i] != want[i] {
			t.Errorf("rcpt %d: got %q, want %q", i, gotRcpts[i], want[i])
		}
	}
	if !strings.Contains(string(gotBody), "Subject: subject") {
		t.Errorf("rendered message missing subject header:\n%s", gotBody)
	}
}

func TestSend_TransportFailureIsUnsuccessfulResult(t *testing.T) {
	t.Parallel()

	p, err := newWithSender(Config{
		Host:        "mail.example.com",
		Port:        587,
		DefaultFrom: "from@email.com",
	}, func(string, sasl.Client, string, []string, io.Reader) error {
		return errors.New("connection refused")
	})
	if err != nil {
		t.Fatalf("newWithSender: %v", err)
	}

	res, err := p.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send returned error for transport failure: %v", err)
	}
	if res.Successful() {
		t.Error("result reported success for transport failure")
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Errorf("Message: got %q", res.Message)
	}
}

func TestSend_BuildFailureIsError(t *testing.T) {
	t.Parallel()

	called := false
	p, err := newWithSender(Config{
		Host: "mail.example.com",
		Port: 587,
	}, func(string, sasl.Client, string, []string, io.Reader) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("newWithSender: %v", err)
	}

	// no sender configured anywhere
	res, err := p.Send(context.Background(), testMessage())
	if !errors.Is(err, email.ErrMissingData) {
		t.Fatalf("Send: got %v, want ErrMissingData", err)
	}
	if res.Successful() {
		t.Error("result reported success for build failure")
	}
	if called {
		t.Error("transport invoked for a message that failed to build")
	}
}

// memorySession collects everything one SMTP transaction delivers.
type memorySession struct {
	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
}

func (s *memorySession) Reset()        {}
func (s *memorySession) Logout() error { return nil }

func (s *memorySession) Mail(from string, _ gosmtp.MailOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.from = from
	return nil
}

func (s *memorySession) Rcpt(to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rcpts = append(s.rcpts, to)
	return nil
}

func (s *memorySession) Data(r io.Reader) error {
	buf, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = string(buf)
	return nil
}

// memoryBackend accepts any non-empty credentials.
type memoryBackend struct {
	session *memorySession
}

func (b *memoryBackend) Login(_ *gosmtp.ConnectionState, username, password string) (gosmtp.Session, error) {
	if username == "" || password == "" {
		return nil, errors.New("credentials required")
	}
	return b.session, nil
}

func (b *memoryBackend) AnonymousLogin(_ *gosmtp.ConnectionState) (gosmtp.Session, error) {
	return nil, gosmtp.ErrAuthUnsupported
}

func TestSend_AgainstInProcessServer(t *testing.T) {
	t.Parallel()

	session := &memorySession{}
	srv := gosmtp.NewServer(&memoryBackend{session: session})
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go srv.Serve(ln)
	defer srv.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	p, err := New(Config{
		Host:        "127.0.0.1",
		Port:        port,
		Username:    "user",
		Password:    "pass",
		DefaultFrom: "from@email.com",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := p.Send(ctx, testMessage())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Successful() {
		t.Fatalf("result not successful: %v", res)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.from != "from@email.com" {
		t.Errorf("envelope from: got %q", session.from)
	}
	if len(session.rcpts) != 1 || session.rcpts[0] != "to@email.com" {
		t.Errorf("envelope rcpts: got %v", session.rcpts)
	}
	if !strings.Contains(session.data, "body") {
		t.Errorf("delivered message missing body:\n%s", session.data)
	}
}
