package service

import (
	"bytes"
	"html/template"

	"puretasks/contracts/events"
)

var reminderEmailTmpl = template.Must(template.New("reminder_email").Parse(`
<html>
<body>
    <h2>Task Reminder</h2>
    <p>This is a reminder for your task:</p>
    <h3>{{.TaskTitle}}</h3>
    <p><strong>Reminder Type:</strong> {{.ReminderType}}</p>
    <p><strong>Scheduled Time:</strong> {{.RemindAt}}</p>
    <p>Please check your task list for more details.</p>
    <br>
    <p>Best regards,<br>Pure Tasks Team</p>
</body>
</html>
`))

type reminderEmailData struct {
	TaskTitle    string
	ReminderType string
	RemindAt     string
}

// RenderReminderEmail produces the subject and HTML body for a reminder
// notification.
func RenderReminderEmail(data events.ReminderData) (subject, body string, err error) {
	subject = "Reminder: " + data.TaskTitle

	var buf bytes.Buffer
	err = reminderEmailTmpl.Execute(&buf, reminderEmailData{
		TaskTitle:    data.TaskTitle,
		ReminderType: data.ReminderType,
		RemindAt:     data.RemindAt.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
