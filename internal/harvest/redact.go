package harvest

import "strings"

// Placeholder replaces the redaction secret in pulled source code.
const Placeholder = "YOUR_DISCORD_BOT_TOKEN_HERE"

// Redact replaces every verbatim occurrence of secret with Placeholder.
// It is a plain substring match; an empty secret disables it.
func Redact(source, secret string) (string, bool) {
	if secret == "" || !strings.Contains(source, secret) {
		return source, false
	}
	return strings.ReplaceAll(source, secret, Placeholder), true
}
