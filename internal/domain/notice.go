package domain

// Notice is the message code of a successful operation. The HTTP layer
// resolves it to text in the caller's language.
type Notice string

const (
	NoticeRegistered             Notice = "AUTH.REGISTERED"
	NoticeEmailConfirmed         Notice = "AUTH.EMAIL_CONFIRMED"
	NoticePasswordResetRequested Notice = "AUTH.PASSWORD_RESET_REQUESTED"
	NoticePasswordReset          Notice = "AUTH.PASSWORD_RESET"
	NoticeLoggedOut              Notice = "AUTH.LOGGED_OUT"
	NoticeConfirmationResent     Notice = "AUTH.CONFIRMATION_RESENT"
	NoticeSessionsRevoked        Notice = "AUTH.SESSIONS_REVOKED"
	NoticePasswordChanged        Notice = "USER.PASSWORD_CHANGED"
)
