// internal/models/device.go
package models

// Device is a registered push target. Token is the platform endpoint ARN
// or raw device token, depending on the transport.
type Device struct {
	Token        string `json:"token"`
	Platform     string `json:"platform"` // "ios", "android", "web"
	RegisteredAt string `json:"registeredAt"`
}
