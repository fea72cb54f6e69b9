package main

import (
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser:       {"new_account_email.html", "奖学金申请规划 - 账户信息"},
	domain.MailTypeResetPassword:    {"reset_password_otp_email.html", "奖学金申请规划 - 重置密码"},
	domain.MailTypeChangeEmail:      {"change_email_email.html", "奖学金申请规划 - 修改邮箱"},
	domain.MailTypeWorkloadConflict: {"workload_conflict_email.html", "奖学金申请规划 - 工作量冲突提醒"},
	domain.MailTypeScheduleAtRisk:   {"schedule_at_risk_email.html", "奖学金申请规划 - 排期风险提醒"},
}

// buildMail 根据邮件类型渲染模板，返回可以直接发送的邮件
func buildMail(templateDir string, from string, message domain.MailMessage) (*mail.Msg, error) {
	t, ok := mailTemplates[message.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", message.Type)
	}

	tmpl, err := template.ParseFiles(filepath.Join(templateDir, t.file))
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(message.To); err != nil {
		return nil, err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, message.Data); err != nil {
		return nil, err
	}
	m.Subject(t.subject)

	return m, nil
}
