package login

type WebLoginSessionInfo struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserIDStr    string `json:"uid"`
	Email        string `json:"email"`
	SessionID    string `json:"-"` // raw id, only ever stored encrypted
	Key          string `json:"-"`
}
