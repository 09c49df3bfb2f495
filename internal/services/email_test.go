package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevisionReminderBody(t *testing.T) {
	body := revisionReminderBody("<Asha>", []string{"Graphs & Trees", "DP"}, "http://localhost:5173/study-plan")

	assert.Contains(t, body, "Hi &lt;Asha&gt;, revision time!")
	assert.Contains(t, body, "<li style=\"margin: 0 0 6px;\">Graphs &amp; Trees</li>")
	assert.Contains(t, body, "<li style=\"margin: 0 0 6px;\">DP</li>")
	assert.Contains(t, body, `href="http://localhost:5173/study-plan"`)
	assert.Contains(t, body, "0%, #6366f1 100%)")

	assert.Contains(t, revisionReminderBody("", nil, "x"), "Hi, revision time!")
}

func TestEmailService_DevMode(t *testing.T) {
	svc := NewEmailService("", "587", "", "", "noreply@example.com", "http://localhost:5173", quietLogger())
	assert.True(t, svc.devMode)
	assert.NoError(t, svc.SendRevisionReminderEmail("a@example.com", "A", []string{"Graphs"}))

	live := NewEmailService("smtp.example.com", "587", "user", "pass", "noreply@example.com", "", quietLogger())
	assert.False(t, live.devMode)
}

func TestBuildMessage_SubjectCannotInjectHeaders(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "a@example.com", "Time to revise Graphs\r\nBcc: victim@example.com", "<p>hi</p>"))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, ok)
	assert.Equal(t, "<p>hi</p>", body)

	lines := strings.Split(head, "\r\n")
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
	}
	assert.True(t, strings.HasPrefix(lines[2], "Subject: =?utf-8?q?"), lines[2])
}

func TestBuildMessage_PlainSubjectUnchanged(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "a@example.com", "Time to revise Graphs", "x"))
	assert.Contains(t, msg, "\r\nSubject: Time to revise Graphs\r\n")
}
