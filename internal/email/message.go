// Package email defines the outgoing mail message model: a fluent builder
// that accumulates recipients, content, headers and attachments, and the
// validated immutable snapshot that delivery providers render from.
package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/shineum/mailout/internal/address"
)

// Kind identifies how a recipient receives the message.
type Kind int

const (
	To Kind = iota
	Cc
	Bcc
)

// String returns the lowercase wire name of the recipient kind.
func (k Kind) String() string {
	switch k {
	case To:
		return "to"
	case Cc:
		return "cc"
	case Bcc:
		return "bcc"
	default:
		return "unknown"
	}
}

// header returns the canonical RFC 5322 header name for the kind.
func (k Kind) header() string {
	switch k {
	case To:
		return "To"
	case Cc:
		return "Cc"
	case Bcc:
		return "Bcc"
	default:
		return ""
	}
}

// Address pairs a bare email address with an optional display name.
type Address struct {
	Email string
	Name  string
}

// DisplayName returns the display name, falling back to the address itself
// when no name was given.
func (a Address) DisplayName() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name
}

// String formats the address as "Name <email>". An unset name, or a name
// that merely repeats the address, renders as the bare address.
func (a Address) String() string {
	if a.Name == "" || strings.EqualFold(a.Name, a.Email) {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Attachment is one file attached to a message. Values are immutable once
// constructed; bulk-added attachments are the caller's responsibility.
type Attachment struct {
	MimeType string
	Content  []byte
	FileName string
}

// recipientSet keeps one kind's addresses in insertion order with
// last-write-wins display names. The address is the identity: adding the
// same address again only replaces its name.
type recipientSet struct {
	order []string
	names map[string]string
}

func (r *recipientSet) put(email, name string) {
	if r.names == nil {
		r.names = make(map[string]string)
	}
	if _, ok := r.names[email]; !ok {
		r.order = append(r.order, email)
	}
	r.names[email] = name
}

func (r *recipientSet) empty() bool {
	return r == nil || len(r.order) == 0
}

// Message is a mutable builder for one outgoing mail message. Mutators
// return the receiver for chaining. The first invalid argument is recorded
// on the builder, turns later mutators into no-ops, and surfaces from Err
// and Build. A Message is single-owner: it must not be mutated concurrently
// and is consumed by exactly one provider Send call.
type Message struct {
	recipients  map[Kind]*recipientSet
	fromEmail   string
	fromName    string
	subject     string
	text        string
	html        string
	headers     map[string]string
	excluded    []string
	attachments []Attachment
	sendAt      time.Time
	err         error
}

// New returns an empty message builder.
func New() *Message {
	return &Message{}
}

// Err returns the first invalid argument recorded by a mutator, if any.
func (m *Message) Err() error {
	return m.err
}

func (m *Message) fail(format string, args ...any) *Message {
	if m.err == nil {
		m.err = fmt.Errorf(format, args...)
	}
	return m
}

// checkAddress validates and normalizes one email address. On failure the
// builder error is recorded and ok is false.
func (m *Message) checkAddress(email, kind string) (normalized string, ok bool) {
	if strings.TrimSpace(email) == "" {
		m.fail("%w: missing %s email address", ErrInvalidArgument, kind)
		return "", false
	}
	if !address.IsEmail(email) {
		m.fail("%w: invalid %s email address %q", ErrInvalidArgument, kind, email)
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(email)), true
}

// From sets the sender address. Last write wins.
func (m *Message) From(email string) *Message {
	return m.FromNamed(email, "")
}

// FromNamed sets the sender address and display name. An empty name clears
// any previously set name.
func (m *Message) FromNamed(email, name string) *Message {
	if m.err != nil {
		return m
	}
	addr, ok := m.checkAddress(email, "from")
	if !ok {
		return m
	}
	m.fromEmail = addr
	m.fromName = strings.TrimSpace(name)
	return m
}

// SetFromName sets only the sender display name.
func (m *Message) SetFromName(name string) *Message {
	if m.err != nil {
		return m
	}
	m.fromName = strings.TrimSpace(name)
	return m
}

// DefaultFrom sets the sender only when no explicit sender is present. When
// the explicit sender matches the given address and carries no name, the
// name is applied as well. Providers use this to inject a configured
// fallback sender without clobbering the caller's choice.
func (m *Message) DefaultFrom(email, name string) *Message {
	if m.err != nil {
		return m
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return m
	}
	if m.fromEmail == "" {
		return m.FromNamed(email, name)
	}
	if strings.EqualFold(m.fromEmail, trimmed) && m.fromName == "" {
		return m.FromNamed(email, name)
	}
	return m
}

// FromEmail returns the sender address, lowercased and trimmed.
func (m *Message) FromEmail() string {
	return m.fromEmail
}

// FromName returns the sender display name, or "" when unset.
func (m *Message) FromName() string {
	return m.fromName
}

// To adds recipient addresses without display names.
func (m *Message) To(emails ...string) *Message {
	return m.addList(To, emails, nil)
}

// ToNamed adds one recipient address with a display name.
func (m *Message) ToNamed(email, name string) *Message {
	return m.add(To, email, name)
}

// ToList adds parallel lists of addresses and names. An empty names list is
// treated as addresses only; any other length mismatch is an error.
func (m *Message) ToList(emails, names []string) *Message {
	return m.addList(To, emails, names)
}

// ToMap adds address→name pairs.
func (m *Message) ToMap(pairs map[string]string) *Message {
	return m.addMap(To, pairs)
}

// Cc adds carbon-copy addresses without display names.
func (m *Message) Cc(emails ...string) *Message {
	return m.addList(Cc, emails, nil)
}

// CcNamed adds one carbon-copy address with a display name.
func (m *Message) CcNamed(email, name string) *Message {
	return m.add(Cc, email, name)
}

// CcList adds parallel lists of carbon-copy addresses and names.
func (m *Message) CcList(emails, names []string) *Message {
	return m.addList(Cc, emails, names)
}

// CcMap adds carbon-copy address→name pairs.
func (m *Message) CcMap(pairs map[string]string) *Message {
	return m.addMap(Cc, pairs)
}

// Bcc adds blind-carbon-copy addresses without display names.
func (m *Message) Bcc(emails ...string) *Message {
	return m.addList(Bcc, emails, nil)
}

// BccNamed adds one blind-carbon-copy address with a display name.
func (m *Message) BccNamed(email, name string) *Message {
	return m.add(Bcc, email, name)
}

// BccList adds parallel lists of blind-carbon-copy addresses and names.
func (m *Message) BccList(emails, names []string) *Message {
	return m.addList(Bcc, emails, names)
}

// BccMap adds blind-carbon-copy address→name pairs.
func (m *Message) BccMap(pairs map[string]string) *Message {
	return m.addMap(Bcc, pairs)
}

// add is the single primitive every recipient overload funnels into.
func (m *Message) add(kind Kind, email, name string) *Message {
	if m.err != nil {
		return m
	}
	addr, ok := m.checkAddress(email, kind.String())
	if !ok {
		return m
	}
	if m.recipients == nil {
		m.recipients = make(map[Kind]*recipientSet)
	}
	set := m.recipients[kind]
	if set == nil {
		set = &recipientSet{}
		m.recipients[kind] = set
	}
	set.put(addr, strings.TrimSpace(name))
	return m
}

func (m *Message) addList(kind Kind, emails, names []string) *Message {
	if m.err != nil || len(emails) == 0 {
		return m
	}
	if len(names) == 0 {
		for _, e := range emails {
			m.add(kind, e, "")
		}
		return m
	}
	if len(names) != len(emails) {
		return m.fail("%w: names and emails list must have same number of items", ErrInvalidArgument)
	}
	for i, e := range emails {
		m.add(kind, e, names[i])
	}
	return m
}

func (m *Message) addMap(kind Kind, pairs map[string]string) *Message {
	if m.err != nil || len(pairs) == 0 {
		return m
	}
	for e, n := range pairs {
		m.add(kind, e, n)
	}
	return m
}

// Emails returns one kind's recipients in insertion order with excluded
// addresses filtered out. The returned slice is a copy.
func (m *Message) Emails(kind Kind) []Address {
	set := m.recipients[kind]
	if set.empty() {
		return nil
	}
	out := make([]Address, 0, len(set.order))
	for _, e := range set.order {
		if m.isExcluded(e) {
			continue
		}
		out = append(out, Address{Email: e, Name: set.names[e]})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Subject sets the message subject. Blank input is silently ignored.
func (m *Message) Subject(value string) *Message {
	if m.err != nil {
		return m
	}
	if v := strings.TrimSpace(value); v != "" {
		m.subject = v
	}
	return m
}

// Text sets the plain-text body. Blank input is silently ignored.
func (m *Message) Text(value string) *Message {
	if m.err != nil {
		return m
	}
	if v := strings.TrimSpace(value); v != "" {
		m.text = v
	}
	return m
}

// HTML sets the HTML body. Blank input is silently ignored. Text and HTML
// may coexist; providers decide how both are delivered.
func (m *Message) HTML(value string) *Message {
	if m.err != nil {
		return m
	}
	if v := strings.TrimSpace(value); v != "" {
		m.html = v
	}
	return m
}

// Header adds one custom header. Name and value must be non-blank; the last
// write per name wins.
func (m *Message) Header(name, value string) *Message {
	if m.err != nil {
		return m
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		return m.fail("%w: missing header name", ErrInvalidArgument)
	}
	if value == "" {
		return m.fail("%w: missing header value", ErrInvalidArgument)
	}
	if m.headers == nil {
		m.headers = make(map[string]string)
	}
	m.headers[name] = value
	return m
}

// Headers adds custom headers from name→value pairs.
func (m *Message) Headers(pairs map[string]string) *Message {
	for n, v := range pairs {
		m.Header(n, v)
	}
	return m
}

// Exclude marks an address that must never receive this message. Exclusion
// is a build-time filter: the address stays in the recipient lists but is
// skipped when the snapshot is produced. Duplicates are no-ops.
func (m *Message) Exclude(email string) *Message {
	if m.err != nil {
		return m
	}
	if _, ok := m.checkAddress(email, "excluded"); !ok {
		return m
	}
	trimmed := strings.TrimSpace(email)
	for _, e := range m.excluded {
		if e == trimmed {
			return m
		}
	}
	m.excluded = append(m.excluded, trimmed)
	return m
}

func (m *Message) isExcluded(email string) bool {
	for _, e := range m.excluded {
		if e == email {
			return true
		}
	}
	return false
}

// Attach appends one attachment built from UTF-8 text content. All three
// values must be non-blank after trimming.
func (m *Message) Attach(content, fileName, mimeType string) *Message {
	if m.err != nil {
		return m
	}
	content = strings.TrimSpace(content)
	fileName = strings.TrimSpace(fileName)
	mimeType = strings.TrimSpace(mimeType)
	if content == "" {
		return m.fail("%w: missing attachment content", ErrInvalidArgument)
	}
	if fileName == "" {
		return m.fail("%w: missing attachment file name", ErrInvalidArgument)
	}
	if mimeType == "" {
		return m.fail("%w: missing attachment mime type", ErrInvalidArgument)
	}
	m.attachments = append(m.attachments, Attachment{
		MimeType: mimeType,
		Content:  []byte(content),
		FileName: fileName,
	})
	return m
}

// AddAttachments appends prebuilt attachments as-is, without validation.
func (m *Message) AddAttachments(list ...Attachment) *Message {
	if m.err != nil {
		return m
	}
	m.attachments = append(m.attachments, list...)
	return m
}

// SetSendAt requests delivery at a future time. A zero or non-future time
// clears any previously stored value; this is not an error. Providers that
// cannot schedule silently ignore the value.
func (m *Message) SetSendAt(t time.Time) *Message {
	if m.err != nil {
		return m
	}
	if !t.IsZero() && t.After(time.Now()) {
		m.sendAt = t
	} else {
		m.sendAt = time.Time{}
	}
	return m
}

// SendAt returns the requested delivery time, zero when unset.
func (m *Message) SendAt() time.Time {
	return m.sendAt
}
