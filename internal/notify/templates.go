package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var (
	approvedTmpl = template.Must(template.New("approved").Parse(`<h1>Account Approved</h1>
<p>Dear {{.ProviderName}},</p>
<p>Congratulations! Your Dial a Service account has been approved.</p>
<p>You can now start accepting jobs for your business: {{.BusinessName}}.</p>
<p><a href="{{.LoginURL}}">Login to Dashboard</a></p>
`))

	rejectedTmpl = template.Must(template.New("rejected").Parse(`<h1>Account Review Update</h1>
<p>Dear {{.ProviderName}},</p>
<p>We've reviewed your application for {{.BusinessName}}.</p>
<p>Unfortunately, we need some adjustments:</p>
<p>{{.RejectionReason}}</p>
<p>You can resubmit your application through the login page.</p>
<p><a href="{{.LoginURL}}">Login to Resubmit</a></p>
`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`<p>Dear {{.CustomerName}},</p>
<p>This is a reminder that your job is scheduled to start in about one hour.</p>
<ul>
<li><strong>Job:</strong> {{.Title}}</li>
<li><strong>Category:</strong> {{.Category}}</li>
<li><strong>Start:</strong> {{.Start}}</li>
<li><strong>End:</strong> {{.End}}</li>
</ul>
<p>If you need to reschedule, contact your provider as soon as possible.</p>
<p>Dial a Service</p>
`))
)

type VerificationEmail struct {
	To              string
	ProviderName    string
	BusinessName    string
	Approved        bool
	RejectionReason string
	AppURL          string
}

func (v VerificationEmail) Build() (Message, error) {
	data := struct {
		ProviderName    string
		BusinessName    string
		RejectionReason string
		LoginURL        string
	}{
		ProviderName:    v.ProviderName,
		BusinessName:    v.BusinessName,
		RejectionReason: v.RejectionReason,
		LoginURL:        strings.TrimRight(v.AppURL, "/") + "/auth/signin",
	}

	subject := "Your Dial a Service Account needs attention"
	tmpl := rejectedTmpl
	if v.Approved {
		subject = "Your Dial a Service Account has been approved"
		tmpl = approvedTmpl
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return Message{To: v.To, Subject: subject, HTML: body.String()}, nil
}

type ReminderEmail struct {
	To           string
	CustomerName string
	Title        string
	Category     string
	Start        time.Time
	End          *time.Time
}

func (r ReminderEmail) Build() (Message, error) {
	end := "-"
	if r.End != nil {
		end = r.End.Format("2006-01-02 15:04")
	}
	title := r.Title
	if title == "" {
		title = r.Category
	}
	data := map[string]string{
		"CustomerName": r.CustomerName,
		"Title":        title,
		"Category":     r.Category,
		"Start":        r.Start.Format("2006-01-02 15:04"),
		"End":          end,
	}

	var body bytes.Buffer
	if err := reminderTmpl.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reminder email: %w", err)
	}
	return Message{
		To:      r.To,
		Subject: fmt.Sprintf("Reminder: Upcoming Job - %s", title),
		HTML:    body.String(),
	}, nil
}
