package model

import "strings"

// SanitizeTopic turns a classifier-supplied topic name into a key that is
// safe to use inside topicQuestionCount. Mongo reserves '.' as the nested
// field path separator and '$' as an operator prefix, so both are replaced.
// The same function runs at topic discovery and at query classification so
// the two sides always agree on the key.
func SanitizeTopic(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(topic))
	lastDash := false
	for _, r := range topic {
		switch {
		case r == '.' || r == '$' || r < 0x20 || r == 0x7f:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		case r == ' ' || r == '\t':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.Trim(b.String(), "-")
}
