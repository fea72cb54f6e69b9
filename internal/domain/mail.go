package domain

const (
	MailTypeCreateUser       = "create_user"
	MailTypeResetPassword    = "reset_password"
	MailTypeChangeEmail      = "change_email"
	MailTypeWorkloadConflict = "workload_conflict"
	MailTypeScheduleAtRisk   = "schedule_at_risk"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ChangeEmailMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type WorkloadConflictMailData struct {
	FullName string   `json:"fullName"`
	Warnings []string `json:"warnings"`
}

type ScheduleAtRiskMailData struct {
	FullName        string   `json:"fullName"`
	ApplicationName string   `json:"applicationName"`
	Reason          string   `json:"reason"`
	Warnings        []string `json:"warnings"`
}
