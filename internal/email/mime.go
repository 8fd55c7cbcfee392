package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// MIME renders the snapshot as a complete RFC 5322 message ready for an
// SMTP transport. A message with no attachments and a single body kind is
// rendered single-part; anything else becomes a multipart/mixed tree with
// parts in fidelity-ascending order: plain text, then HTML, then the
// attachments in insertion order. Mail clients rely on that order for
// fallback rendering.
func (s *Snapshot) MIME() ([]byte, error) {
	var buf bytes.Buffer

	from := mail.Address{Name: s.From.DisplayName(), Address: s.From.Email}
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())

	for _, kind := range []Kind{To, Cc, Bcc} {
		writeRecipientHeader(&buf, kind, s.Recipients(kind))
	}

	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", s.Subject))

	for name, value := range s.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}

	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	// Single-part fast path: no attachments and exactly one body kind.
	if len(s.Attachments) == 0 && (s.Text == "") != (s.HTML == "") {
		if s.HTML != "" {
			fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
			buf.WriteString(s.HTML)
		} else {
			fmt.Fprintf(&buf, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
			buf.WriteString(s.Text)
		}
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	if s.Text != "" {
		if err := writeBodyPart(writer, "text/plain", s.Text); err != nil {
			return nil, fmt.Errorf("%w: text part: %v", ErrBuildFailed, err)
		}
	}
	if s.HTML != "" {
		if err := writeBodyPart(writer, "text/html", s.HTML); err != nil {
			return nil, fmt.Errorf("%w: html part: %v", ErrBuildFailed, err)
		}
	}

	for _, att := range s.Attachments {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Type", att.MimeType)
		header.Set("Content-Transfer-Encoding", "base64")
		if att.FileName != "" {
			header.Set("Content-Disposition",
				fmt.Sprintf("attachment; filename=%s", mime.QEncoding.Encode("UTF-8", att.FileName)))
		} else {
			header.Set("Content-Disposition", "attachment")
		}

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("%w: attachment %q: %v", ErrBuildFailed, att.FileName, err)
		}
		if _, err := part.Write([]byte(wrapBase64(att.Content))); err != nil {
			return nil, fmt.Errorf("%w: attachment %q: %v", ErrBuildFailed, att.FileName, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return buf.Bytes(), nil
}

// writeRecipientHeader emits one To/Cc/Bcc header, skipping the kind
// entirely when its filtered list is empty. Display names default to the
// address itself.
func writeRecipientHeader(buf *bytes.Buffer, kind Kind, list []Address) {
	if len(list) == 0 {
		return
	}
	formatted := make([]string, 0, len(list))
	for _, r := range list {
		a := mail.Address{Name: r.DisplayName(), Address: r.Email}
		formatted = append(formatted, a.String())
	}
	fmt.Fprintf(buf, "%s: %s\r\n", kind.header(), strings.Join(formatted, ", "))
}

func writeBodyPart(writer *multipart.Writer, contentType, body string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", contentType+"; charset=UTF-8")
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}

// wrapBase64 encodes bytes to base64 broken at 76 columns per RFC 2045.
func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}
