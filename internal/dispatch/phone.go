package dispatch

import "strings"

// ChatSuffix is the transport-specific address suffix for individual chats.
const ChatSuffix = "@s.whatsapp.net"

// NormalizePhone canonicalizes a destination number to international form:
// non-digits are stripped, a leading trunk prefix 0 becomes the country
// code 62, numbers already starting with 62 pass through, anything else
// gets 62 prepended.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "0"):
		return "62" + digits[1:]
	case strings.HasPrefix(digits, "62"):
		return digits
	default:
		return "62" + digits
	}
}

// ChatID converts a phone number into a transport chat address.
func ChatID(phone string) string {
	return NormalizePhone(phone) + ChatSuffix
}
