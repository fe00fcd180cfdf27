package emailsvc

import (
	"encoding/json"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core"
	logsvc "github.com/trezcool/gmao/services/logger"
)

type assignedData struct {
	Name        string
	Title       string
	Description string
	Priority    string
	DueDate     string
}

func TestConsoleServiceMock(t *testing.T) {
	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(logger, true)
	svc := NewConsoleServiceMock(core.NewTestConfig(), logger)

	to := []mail.Address{{Name: "Sara", Address: "sara@gmao.ma"}}
	svc.SendMessages(
		&core.EmailMessage{
			To:           to,
			Subject:      "Nouvelle tâche : Graisser",
			TemplateName: "task_assigned",
			TemplateData: assignedData{Name: "Sara", Title: "Graisser le convoyeur", Priority: "Haute", DueDate: "01/03/2024"},
		},
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "unknown template", TemplateName: "nope"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "Graisser le convoyeur")
	assert.Contains(t, sent[0].TextContent, "http://localhost:3000/technician/tasks")
	assert.Contains(t, sent[0].HTMLContent, "Haute")
	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, logsvc.NewDiscardLogger()).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Sara", Address: "sara@gmao.ma"}},
		Subject:     "Nouvelle tâche : Graisser",
		TextContent: "text",
	})
	body, err := json.Marshal(m)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `"subject":"[GMAO] Nouvelle tâche : Graisser"`), string(body))
	assert.Len(t, m.Content, 1)
	assert.Equal(t, "noreply@localhost", m.From.Address)
}

func TestNewService(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()

	_, ok := NewService(conf, logger).(*consoleService)
	assert.True(t, ok)

	conf.SendgridAPIKey = "SG.key"
	_, ok = NewService(conf, logger).(*sendgridService)
	assert.True(t, ok)
}
