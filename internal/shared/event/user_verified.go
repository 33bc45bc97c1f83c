package event

const UserVerifiedDestination string = "passcode_user_verified"

type UserVerifiedMessage struct {
	UserID     int64  `json:"user_id"`
	Identity   string `json:"identity"`
	IsNewUser  bool   `json:"is_new_user"`
	VerifiedAt int64  `json:"verified_at"`
}
