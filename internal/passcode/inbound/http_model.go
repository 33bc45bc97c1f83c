package inbound

type SendRequest struct {
	Identity string `json:"identity"`
}

type SendResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (SendResponse) Message() string {
	return "OTP sent successfully"
}

func (r SendResponse) Fields() map[string]any {
	return map[string]any{"token": r.Token}
}

type VerifyRequest struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
	Token    string `json:"token"`
}

type VerifyResponse struct {
	UserID    int64 `json:"user_id,string"`
	IsNewUser bool  `json:"is_new_user"`
}

func (r VerifyResponse) Message() string {
	if r.IsNewUser {
		return "Hello New User"
	}
	return "Hello Existed User"
}

func (r VerifyResponse) Fields() map[string]any {
	return map[string]any{"isNewUser": r.IsNewUser}
}
