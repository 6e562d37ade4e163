package verify

// PhoneLoginRequest is the body of the external phone login call.
// The API key may come in the body or the X-API-Key header.
type PhoneLoginRequest struct {
	Phone  string `json:"phone" form:"phone"`
	APIKey string `json:"api_key" form:"api_key"`
}

type CIDVerifyRequest struct {
	CID    string `json:"cid" form:"cid"`
	APIKey string `json:"api_key" form:"api_key"`
}
