// File: internal/onboarding/model.go
package onboarding

// RegisterRequest is the self-service tenant registration body.
type RegisterRequest struct {
	Company   string `json:"company" binding:"required,min=2,max=200"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Namespace string `json:"namespace" binding:"required,max=63,dns1123"`
	Note      string `json:"note" binding:"max=2000"`
}

// RegisterResponse carries the short lived token of a pending tenant admin.
type RegisterResponse struct {
	OK          bool   `json:"ok"`
	Msg         string `json:"msg"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// StatusResponse reports the caller's tenant state.
type StatusResponse struct {
	Status string `json:"status"`
}

// registerEvent is posted to ONBOARDING_WEBHOOK_URL.
type registerEvent struct {
	Event   string `json:"event"`
	Company string `json:"company"`
	Email   string `json:"email"`
}
