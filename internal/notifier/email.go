package notifier

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
)

// Attachment 邮件附件，目前只用于图表PNG
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Mailer SMTP邮件发送器
type Mailer struct {
	logger *zap.Logger
	conf   config.EmailConf
}

func NewMailer(logger *zap.Logger, conf config.EmailConf) *Mailer {
	return &Mailer{logger: logger, conf: conf}
}

func (m *Mailer) Enabled() bool {
	return m.conf.Enabled && m.conf.Host != "" && len(m.conf.To) > 0
}

// Send 发送一封纯文本+HTML双格式邮件，可附带PNG附件
func (m *Mailer) Send(subject, plain, html string, attachments []Attachment) error {
	if !m.Enabled() {
		return fmt.Errorf("邮件通知未启用或配置不完整")
	}

	msg, err := m.buildMessage(subject, plain, html, attachments)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.conf.Host, m.conf.Port)
	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	}

	if m.conf.Port == 465 {
		err = m.sendImplicitTLS(addr, auth, msg)
	} else {
		// 587走STARTTLS，25明文，均由smtp.SendMail内部协商
		err = smtp.SendMail(addr, auth, m.conf.From, m.conf.To, msg)
	}
	if err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	m.logger.Info("邮件发送成功",
		zap.String("subject", subject),
		zap.Strings("to", m.conf.To),
		zap.Int("attachments", len(attachments)))
	return nil
}

// sendImplicitTLS 465端口的隐式TLS连接
func (m *Mailer) sendImplicitTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.conf.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.conf.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return err
		}
	}
	if err = client.Mail(m.conf.From); err != nil {
		return err
	}
	for _, to := range m.conf.To {
		if err = client.Rcpt(to); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage 组装RFC 2045多段邮件：
// multipart/mixed 外层包附件，multipart/alternative 内层包纯文本和HTML
func (m *Mailer) buildMessage(subject, plain, html string, attachments []Attachment) ([]byte, error) {
	var buf bytes.Buffer

	mixed := multipart.NewWriter(&buf)
	headers := []string{
		fmt.Sprintf("From: %s", m.conf.From),
		fmt.Sprintf("To: %s", strings.Join(m.conf.To, ", ")),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("UTF-8", subject)),
		fmt.Sprintf("Date: %s", time.Now().Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", mixed.Boundary()),
		"",
		"",
	}
	buf.WriteString(strings.Join(headers, "\r\n"))

	altBuf := &bytes.Buffer{}
	alt := multipart.NewWriter(altBuf)
	if err := writeTextPart(alt, "text/plain; charset=UTF-8", plain); err != nil {
		return nil, err
	}
	if html != "" {
		if err := writeTextPart(alt, "text/html; charset=UTF-8", html); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary()))
	part, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(altBuf.Bytes()); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, filepath.Base(a.Filename)))
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(a.Filename)))
		part, err := mixed.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "8bit")
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}

// writeBase64 按76列换行写出base64编码，兼容严格的SMTP服务器
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n])); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
