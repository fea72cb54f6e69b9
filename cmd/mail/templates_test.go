package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

const templateDir = "../../templates"

// roundTrip 模拟消息经过队列后 Data 变成 map 的情况
func roundTrip(t *testing.T, message domain.MailMessage) domain.MailMessage {
	t.Helper()

	body, err := json.Marshal(message)
	require.NoError(t, err)

	decoded := domain.MailMessage{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

func TestBuildMail(t *testing.T) {
	cases := []struct {
		name     string
		message  domain.MailMessage
		subject  string
		contains []string
	}{
		{
			name: "workload conflict",
			message: domain.MailMessage{
				Type: domain.MailTypeWorkloadConflict,
				To:   "student@example.com",
				Data: domain.WorkloadConflictMailData{
					FullName: "张三",
					Warnings: []string{"Week of 2025-12-01: 18.0 hours"},
				},
			},
			subject:  "奖学金申请规划 - 工作量冲突提醒",
			contains: []string{"Week of 2025-12-01"},
		},
		{
			name: "schedule at risk",
			message: domain.MailMessage{
				Type: domain.MailTypeScheduleAtRisk,
				To:   "student@example.com",
				Data: domain.ScheduleAtRiskMailData{
					FullName:        "张三",
					ApplicationName: "Rhodes",
					Reason:          "deadline has passed",
				},
			},
			subject: "奖学金申请规划 - 排期风险提醒",
		},
		{
			name: "create user",
			message: domain.MailMessage{
				Type: domain.MailTypeCreateUser,
				To:   "student@example.com",
				Data: domain.CreateUserMailData{FullName: "张三", Username: "zhangsan", Password: "secret"},
			},
			subject: "奖学金申请规划 - 账户信息",
		},
		{
			name: "reset password",
			message: domain.MailMessage{
				Type: domain.MailTypeResetPassword,
				To:   "student@example.com",
				Data: domain.ResetPasswordMailData{FullName: "张三", OTP: "123456", Expiration: 15},
			},
			subject:  "奖学金申请规划 - 重置密码",
			contains: []string{"123456"},
		},
		{
			name: "change email",
			message: domain.MailMessage{
				Type: domain.MailTypeChangeEmail,
				To:   "student@example.com",
				Data: domain.ChangeEmailMailData{FullName: "张三", OTP: "654321", Expiration: 15},
			},
			subject:  "奖学金申请规划 - 修改邮箱",
			contains: []string{"654321"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := buildMail(templateDir, "noreply@example.com", roundTrip(t, tc.message))
			require.NoError(t, err)

			assert.Equal(t, []string{tc.subject}, m.GetGenHeader(mail.HeaderSubject))

			buf := &bytes.Buffer{}
			_, err = m.WriteTo(buf)
			require.NoError(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestBuildMailRejects(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := buildMail(templateDir, "noreply@example.com", domain.MailMessage{Type: "unknown", To: "a@example.com"})
		assert.Error(t, err)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		_, err := buildMail(templateDir, "noreply@example.com", domain.MailMessage{Type: domain.MailTypeCreateUser, To: "not an address"})
		assert.Error(t, err)
	})

	t.Run("missing template dir", func(t *testing.T) {
		_, err := buildMail("./does-not-exist", "noreply@example.com", domain.MailMessage{Type: domain.MailTypeCreateUser, To: "a@example.com"})
		assert.Error(t, err)
	})
}
