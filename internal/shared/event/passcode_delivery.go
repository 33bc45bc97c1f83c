package event

// PasscodeDeliveryDestination carries codes for an external sender to deliver.
const PasscodeDeliveryDestination string = "passcode_delivery"

type PasscodeDeliveryMessage struct {
	Identity string `json:"identity"`
	Kind     string `json:"kind"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}
