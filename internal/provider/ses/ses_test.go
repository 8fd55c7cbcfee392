package ses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/mailout/internal/email"
)

type mockSendEmail struct {
	input *sesv2.SendEmailInput
	out   *sesv2.SendEmailOutput
	err   error
}

func (m *mockSendEmail) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.input = params
	return m.out, m.err
}

func testMessage() *email.Message {
	return email.New().
		To("to@email.com").
		Subject("subject").
		Text("body")
}

func TestSend_SimpleEmail(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmail{out: &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}}
	p := NewWithClient(Config{DefaultFrom: "from@email.com"}, mock)

	res, err := p.Send(context.Background(), testMessage().Cc("cc@email.com"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Successful() {
		t.Errorf("result not successful: %v", res)
	}
	if res.MessageID != "ses-1" {
		t.Errorf("MessageID: got %q", res.MessageID)
	}

	in := mock.input
	if in.Content.Simple == nil {
		t.Fatal("expected simple email content")
	}
	if got := aws.ToString(in.FromEmailAddress); got != "from@email.com" {
		t.Errorf("from: got %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "to@email.com" {
		t.Errorf("to: got %v", in.Destination.ToAddresses)
	}
	if len(in.Destination.CcAddresses) != 1 || in.Destination.CcAddresses[0] != "cc@email.com" {
		t.Errorf("cc: got %v", in.Destination.CcAddresses)
	}
	if got := aws.ToString(in.Content.Simple.Body.Text.Data); got != "body" {
		t.Errorf("text body: got %q", got)
	}
	if in.Content.Simple.Body.Html != nil {
		t.Error("html body set without html content")
	}
}

func TestSend_BothBodiesInSimpleShape(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmail{out: &sesv2.SendEmailOutput{}}
	p := NewWithClient(Config{DefaultFrom: "from@email.com"}, mock)

	if _, err := p.Send(context.Background(), testMessage().HTML("<p>rich</p>")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	body := mock.input.Content.Simple.Body
	if aws.ToString(body.Text.Data) != "body" {
		t.Errorf("text: got %q", aws.ToString(body.Text.Data))
	}
	if aws.ToString(body.Html.Data) != "<p>rich</p>" {
		t.Errorf("html: got %q", aws.ToString(body.Html.Data))
	}
}

func TestSend_AttachmentsUseRawMIME(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmail{out: &sesv2.SendEmailOutput{}}
	p := NewWithClient(Config{DefaultFrom: "from@email.com"}, mock)

	msg := testMessage().Attach("payload", "file.txt", "text/plain")
	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	in := mock.input
	if in.Content.Raw == nil {
		t.Fatal("expected raw MIME content")
	}
	if in.Content.Simple != nil {
		t.Error("simple content set alongside raw")
	}
	raw := string(in.Content.Raw.Data)
	if !strings.Contains(raw, "multipart/mixed") {
		t.Errorf("raw message not multipart:\n%s", raw)
	}
	if !strings.Contains(raw, "file.txt") {
		t.Errorf("raw message missing attachment:\n%s", raw)
	}
}

func TestSend_APIFailureIsUnsuccessfulResult(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmail{err: errors.New("MessageRejected")}
	p := NewWithClient(Config{DefaultFrom: "from@email.com"}, mock)

	res, err := p.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send returned error for API failure: %v", err)
	}
	if res.Successful() {
		t.Error("result reported success for API failure")
	}
	if !strings.Contains(res.Message, "MessageRejected") {
		t.Errorf("Message: got %q", res.Message)
	}
}

func TestSend_BuildFailureIsError(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmail{out: &sesv2.SendEmailOutput{}}
	p := NewWithClient(Config{}, mock)

	// no sender configured anywhere
	_, err := p.Send(context.Background(), testMessage())
	if !errors.Is(err, email.ErrMissingData) {
		t.Fatalf("Send: got %v, want ErrMissingData", err)
	}
	if mock.input != nil {
		t.Error("API invoked for a message that failed to build")
	}
}
