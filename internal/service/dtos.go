package service

// MessageResult is the body of mutations that only confirm success
type MessageResult struct {
	Message string `json:"message"`
}
