// Package types contains common types used across the application
package types

import (
	"fmt"
	"strings"
	"time"
)

// Entry is the public projection of a leaderboard row.
type Entry struct {
	Email      string    `json:"email"`
	Guesses    int       `json:"guesses"`
	ElapsedSec int       `json:"elapsedSec"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Masked returns a copy with the email obscured for display.
func (e Entry) Masked() Entry {
	e.Email = MaskEmail(e.Email)
	return e
}

// MaskEmail keeps the first two characters of the local part and the
// domain: "alice@example.com" -> "al***@example.com". Local parts of two
// characters or fewer are kept whole. Values without a domain are returned
// unchanged and empty values become "Anonymous".
func MaskEmail(email string) string {
	if email == "" {
		return "Anonymous"
	}
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[1] == "" {
		return email
	}
	user := []rune(parts[0])
	if len(user) <= 2 {
		return string(user) + "@" + parts[1]
	}
	return string(user[:2]) + "***@" + parts[1]
}

// FormatHMS renders whole seconds as hh:mm:ss. Negative values render as zero.
func FormatHMS(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60)
}
