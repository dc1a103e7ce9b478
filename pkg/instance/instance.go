package instance

import "os"

// GetID returns the kiosk instance identifier or a default value.
func GetID() string {
	if id := os.Getenv("KIOSK_ID"); id != "" {
		return id
	}
	return "kiosk-0"
}
