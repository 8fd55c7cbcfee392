package sendgrid

// Request types for the SendGrid v3 mail send API.
// https://docs.sendgrid.com/api-reference/mail-send/mail-send

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             apiAddress        `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	Attachments      []attachment      `json:"attachments,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
}

type personalization struct {
	To     []apiAddress `json:"to"`
	Cc     []apiAddress `json:"cc,omitempty"`
	Bcc    []apiAddress `json:"bcc,omitempty"`
	SendAt int64        `json:"send_at,omitempty"`
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type attachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition,omitempty"`
}
