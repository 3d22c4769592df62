package handlers

import (
	"time"

	"blockon/api/internal/models"
)

// profileResponse is the public projection of an account.
type profileResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	EthAddress *string   `json:"ethAddress,omitempty"`
	Profile    string    `json:"profile"`
	IsJunggae  bool      `json:"isJunggae"`
	Admin      bool      `json:"admin"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newProfileResponse(account models.Account) profileResponse {
	return profileResponse{
		ID:         account.ID,
		Username:   account.Username,
		Email:      account.Email,
		EthAddress: account.EthAddress,
		Profile:    account.ProfileFilename,
		IsJunggae:  account.IsJunggae,
		Admin:      account.Admin,
		CreatedAt:  account.CreatedAt,
	}
}
