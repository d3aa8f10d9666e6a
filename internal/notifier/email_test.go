package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
)

func newTestMailer() *Mailer {
	return NewMailer(zap.NewNop(), config.EmailConf{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "secret",
		From:     "bot@example.com",
		To:       []string{"trader@example.com"},
	})
}

func TestMailerEnabled(t *testing.T) {
	m := newTestMailer()
	assert.True(t, m.Enabled())

	disabled := NewMailer(zap.NewNop(), config.EmailConf{Enabled: false})
	assert.False(t, disabled.Enabled())

	noRecipient := NewMailer(zap.NewNop(), config.EmailConf{Enabled: true, Host: "smtp.example.com"})
	assert.False(t, noRecipient.Enabled())
}

func TestBuildMessageStructure(t *testing.T) {
	m := newTestMailer()

	msg, err := m.buildMessage("每日策略报告", "纯文本内容", "<h1>HTML内容</h1>", nil)
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "From: bot@example.com")
	assert.Contains(t, text, "To: trader@example.com")
	assert.Contains(t, text, "MIME-Version: 1.0")
	assert.Contains(t, text, "multipart/mixed")
	assert.Contains(t, text, "multipart/alternative")
	assert.Contains(t, text, "text/plain; charset=UTF-8")
	assert.Contains(t, text, "text/html; charset=UTF-8")
	assert.Contains(t, text, "纯文本内容")
	assert.Contains(t, text, "<h1>HTML内容</h1>")
}

func TestBuildMessageSubjectEncoded(t *testing.T) {
	m := newTestMailer()

	msg, err := m.buildMessage("盘前扫描", "body", "", nil)
	require.NoError(t, err)

	// 中文主题必须经过MIME编码
	assert.Contains(t, string(msg), "Subject: =?UTF-8?")
	assert.NotContains(t, strings.Split(string(msg), "\r\n")[2], "盘前扫描")
}

func TestBuildMessageWithAttachment(t *testing.T) {
	m := newTestMailer()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	msg, err := m.buildMessage("报告", "body", "", []Attachment{
		{Filename: "charts/rb2510_20250610.png", ContentType: "image/png", Data: png},
	})
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, `Content-Type: image/png; name="rb2510_20250610.png"`)
	assert.Contains(t, text, "Content-Transfer-Encoding: base64")
	assert.Contains(t, text, `attachment; filename="rb2510_20250610.png"`)
	// 附件路径只保留文件名
	assert.NotContains(t, text, "charts/rb2510")
}

func TestBuildMessageNoHTML(t *testing.T) {
	m := newTestMailer()

	msg, err := m.buildMessage("告警", "数据源抓取失败", "", nil)
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "数据源抓取失败")
	assert.NotContains(t, text, "text/html")
}

func TestSendDisabledFails(t *testing.T) {
	m := NewMailer(zap.NewNop(), config.EmailConf{})
	err := m.Send("x", "y", "", nil)
	assert.Error(t, err)
}
