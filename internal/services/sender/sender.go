// Package services отправляет клиентам письма с приложенным документом.
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"time"

	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/package-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// base64 строки в письме не длиннее 76 символов
const lineLength = 76

// SenderService отправляет уведомления через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	now       func() time.Time
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		now:       time.Now,
		log:       log,
	}
}

// HandleMessage разбирает уведомление из очереди и отправляет его.
func (s *SenderService) HandleMessage(ctx context.Context, body []byte) error {
	const op = "services.sender.HandleMessage"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	return s.Send(ctx, n)
}

// Send собирает письмо с вложением и передаёт его SMTP серверу.
func (s *SenderService) Send(ctx context.Context, n models.Notification) error {
	const op = "services.sender.Send"
	log := s.log.With(slog.String("op", op), slog.String("client_id", n.ClientID))

	msg, err := s.buildMessage(n)
	if err != nil {
		log.Error("failed to build message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	from := s.transport.From()
	client, err := s.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	if err := client.Mail(from.Email); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from.Email), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(n.To); err != nil {
		log.Error("failed to set RCPT TO", slog.String("recipient", n.To), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := wc.Write(msg); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully", slog.String("to", n.To))
	return nil
}

// buildMessage формирует multipart/mixed письмо: текст и, если указано, вложение.
func (s *SenderService) buildMessage(n models.Notification) ([]byte, error) {
	from := s.transport.From()
	fromAddr := mail.Address{Name: from.Name, Address: from.Email}
	toAddr := mail.Address{Address: n.To}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + fromAddr.String(),
		"To: " + toAddr.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", n.Subject),
		"Date: " + s.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + mw.Boundary(),
	}
	var out bytes.Buffer
	for _, h := range headers {
		out.WriteString(h + "\r\n")
	}
	out.WriteString("\r\n")

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="UTF-8"`},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(n.Body)); err != nil {
		return nil, err
	}

	if n.AttachmentPath != "" {
		data, err := os.ReadFile(n.AttachmentPath)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		contentType := n.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		name := n.AttachmentName
		if name == "" {
			name = "document"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": name})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := lineLength
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
