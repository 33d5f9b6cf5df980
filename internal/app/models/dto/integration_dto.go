package dto

import "time"

// KKEMLinkRequest carries the encrypted parameter from the KKEM redirect
type KKEMLinkRequest struct {
	Param string `json:"param" binding:"required"`
}

// KKEMStatusResponse tells whether the user is linked to KKEM
type KKEMStatusResponse struct {
	Linked   bool       `json:"linked"`
	JSID     string     `json:"jsid,omitempty"`
	DWMSID   string     `json:"dwmsId,omitempty"`
	LinkedAt *time.Time `json:"linkedAt,omitempty"`
}

// DiscordLinkRequest carries a Discord OAuth access token
type DiscordLinkRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}
