package harvest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name         string
		source       string
		secret       string
		want         string
		wantRedacted bool
	}{
		{
			name:         "replaces every occurrence",
			source:       `TOKEN = "abc.def"` + "\n" + `headers = {"Authorization": "Bot abc.def"}`,
			secret:       "abc.def",
			want:         `TOKEN = "YOUR_DISCORD_BOT_TOKEN_HERE"` + "\n" + `headers = {"Authorization": "Bot YOUR_DISCORD_BOT_TOKEN_HERE"}`,
			wantRedacted: true,
		},
		{
			name:   "source without secret is unchanged",
			source: `TOKEN = os.environ["DISCORD_BOT_TOKEN"]`,
			secret: "abc.def",
			want:   `TOKEN = os.environ["DISCORD_BOT_TOKEN"]`,
		},
		{
			name:   "empty secret disables redaction",
			source: `x = 1`,
			secret: "",
			want:   `x = 1`,
		},
		{
			// exact match only, no patterns
			name:         "regexp metacharacters are literal",
			source:       `a.c abc`,
			secret:       "a.c",
			want:         Placeholder + ` abc`,
			wantRedacted: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, redacted := Redact(tt.source, tt.secret)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRedacted, redacted)
			if tt.secret != "" {
				assert.False(t, strings.Contains(got, tt.secret))
			}
		})
	}
}
