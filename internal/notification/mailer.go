// Package notification gửi email kết quả khi chiến dịch kết thúc (gomail qua SMTP).
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/config"
	"incentive_hub/internal/logger"
)

// Dialer gửi message qua SMTP (gomail.Dialer thoả interface này)
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer gửi email kết quả chiến dịch. dialer nil = SMTP chưa cấu hình, mọi lệnh gửi là no-op.
type Mailer struct {
	from   string
	dialer Dialer
}

// NewMailer tạo Mailer từ cấu hình SMTP_*
func NewMailer(cfg *config.Configuration) *Mailer {
	if cfg == nil || !cfg.MailEnabled() {
		return &Mailer{}
	}
	return NewMailerWith(cfg.SMTPFrom, gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword))
}

// NewMailerWith tạo Mailer với dialer chỉ định
func NewMailerWith(from string, dialer Dialer) *Mailer {
	return &Mailer{from: from, dialer: dialer}
}

// Enabled cho biết SMTP đã được cấu hình
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

var resultsTemplate = template.Must(template.New("results").Parse(`<h2>{{.Name}}</h2>
<p>Chiến dịch đã kết thúc lúc {{.CompletedAt}}.</p>
{{if .Winners}}<table border="1" cellpadding="6" style="border-collapse:collapse">
<tr><th>Hạng</th><th>Người thắng</th><th>Khu vực</th><th>Điểm</th><th>Giải</th></tr>
{{range .Winners}}<tr><td>{{.Rank}}</td><td>{{.UserName}}</td><td>{{.RegionName}}</td><td>{{printf "%.2f" .Score}}</td><td>{{.Prize}}</td></tr>
{{end}}</table>{{else}}<p>Không có người đạt giải.</p>{{end}}`))

// RenderResults nội dung HTML của email kết quả
func RenderResults(c *campmodels.Campaign) (string, error) {
	completed := time.UnixMilli(c.CompletedAt).Format("02/01/2006 15:04")
	if c.CompletedAt == 0 {
		completed = "-"
	}
	var buf bytes.Buffer
	err := resultsTemplate.Execute(&buf, map[string]interface{}{
		"Name":        c.Name,
		"CompletedAt": completed,
		"Winners":     c.Winners,
	})
	return buf.String(), err
}

// SendCampaignResults gửi kết quả (danh sách người thắng) cho từng người nhận trong một kết nối SMTP
func (m *Mailer) SendCampaignResults(ctx context.Context, c *campmodels.Campaign, recipients []string) error {
	log := logger.WithModule("notification").WithFields(logrus.Fields{
		"campaign_id": c.ID.Hex(),
		"recipients":  len(recipients),
	})
	if !m.Enabled() {
		log.Debug("📧 [MAIL] SMTP chưa cấu hình, bỏ qua email kết quả")
		return nil
	}
	if len(recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := RenderResults(c)
	if err != nil {
		return fmt.Errorf("render campaign results: %w", err)
	}
	subject := fmt.Sprintf("Kết quả chiến dịch %s", c.Name)
	msgs := make([]*gomail.Message, 0, len(recipients))
	for _, to := range recipients {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body)
		msgs = append(msgs, msg)
	}
	if err := m.dialer.DialAndSend(msgs...); err != nil {
		return fmt.Errorf("send campaign results: %w", err)
	}
	log.Info("📧 [MAIL] Đã gửi email kết quả chiến dịch")
	return nil
}
