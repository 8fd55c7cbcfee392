package email

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot is the validated, immutable form of a Message produced by Build.
// Recipient lists are already filtered of excluded addresses and keep their
// insertion order. Snapshots are safe to share between goroutines.
type Snapshot struct {
	From        Address
	To          []Address
	Cc          []Address
	Bcc         []Address
	Subject     string
	Text        string
	HTML        string
	Headers     map[string]string
	Attachments []Attachment
	SendAt      time.Time
}

// Build validates the accumulated message and produces its snapshot.
// Checks run in a fixed order: a recorded mutator error first, then
// recipients present, TO non-empty, at least one TO address not excluded,
// sender present, subject present, at least one body. All failures wrap
// ErrMissingData except the recorded mutator error.
func (m *Message) Build() (*Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.recipients) == 0 {
		return nil, fmt.Errorf("%w: no email address given", ErrMissingData)
	}
	to := m.recipients[To]
	if to.empty() {
		return nil, fmt.Errorf("%w: missing to email address", ErrMissingData)
	}

	found := false
	for _, e := range to.order {
		if !m.isExcluded(e) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: all to email addresses are excluded", ErrMissingData)
	}

	if m.fromEmail == "" {
		return nil, fmt.Errorf("%w: missing from email address", ErrMissingData)
	}
	if m.subject == "" {
		return nil, fmt.Errorf("%w: missing email subject", ErrMissingData)
	}
	if m.text == "" && m.html == "" {
		return nil, fmt.Errorf("%w: missing email content", ErrMissingData)
	}

	snap := &Snapshot{
		From:    Address{Email: m.fromEmail, Name: m.fromName},
		To:      m.Emails(To),
		Cc:      m.Emails(Cc),
		Bcc:     m.Emails(Bcc),
		Subject: strings.TrimSpace(m.subject),
		Text:    strings.TrimSpace(m.text),
		HTML:    strings.TrimSpace(m.html),
		SendAt:  m.sendAt,
	}
	if len(m.headers) > 0 {
		snap.Headers = make(map[string]string, len(m.headers))
		for n, v := range m.headers {
			snap.Headers[n] = v
		}
	}
	if len(m.attachments) > 0 {
		snap.Attachments = append([]Attachment(nil), m.attachments...)
	}
	return snap, nil
}

// Recipients returns the filtered recipient list for one kind.
func (s *Snapshot) Recipients(kind Kind) []Address {
	switch kind {
	case To:
		return s.To
	case Cc:
		return s.Cc
	case Bcc:
		return s.Bcc
	default:
		return nil
	}
}

// AddressList joins one kind's recipients with ", " for display-only wire
// formats. Each entry renders as "Name <email>", or as the bare address
// when no name is set or the name repeats the address. Returns "" when the
// filtered list is empty.
func (s *Snapshot) AddressList(kind Kind) string {
	list := s.Recipients(kind)
	if len(list) == 0 {
		return ""
	}
	items := make([]string, 0, len(list))
	for _, a := range list {
		items = append(items, a.String())
	}
	return strings.Join(items, ", ")
}

// Envelope returns every remaining recipient address across all kinds, in
// to, cc, bcc order. This is the SMTP RCPT TO list.
func (s *Snapshot) Envelope() []string {
	out := make([]string, 0, len(s.To)+len(s.Cc)+len(s.Bcc))
	for _, kind := range []Kind{To, Cc, Bcc} {
		for _, a := range s.Recipients(kind) {
			out = append(out, a.Email)
		}
	}
	return out
}
