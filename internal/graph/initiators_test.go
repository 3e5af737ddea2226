package graph

import (
	"bytes"
	"testing"

	"pagegraph/internal/logger"
	"pagegraph/pkg/traffic"

	"github.com/stretchr/testify/assert"
)

func TestExtractInitiators(t *testing.T) {
	tests := []struct {
		name      string
		initiator traffic.Initiator
		want      []string
		logged    bool
	}{
		{
			name:      "user",
			initiator: traffic.UserInitiator{},
			want:      []string{},
		},
		{
			name:      "parser",
			initiator: traffic.ParserInitiator{URL: "https://a.test/"},
			want:      []string{"https://a.test/"},
		},
		{
			name:      "parser without url",
			initiator: traffic.ParserInitiator{},
			want:      []string{},
			logged:    true,
		},
		{
			name: "script frames deduplicated in first-seen order",
			initiator: traffic.ScriptInitiator{HasStack: true, FrameURLs: []string{
				"https://a.test/b.js", "", "https://a.test/a.js", "https://a.test/b.js", "",
			}},
			want: []string{"https://a.test/b.js", "https://a.test/a.js"},
		},
		{
			name:      "script with only empty frames",
			initiator: traffic.ScriptInitiator{HasStack: true, FrameURLs: []string{"", ""}},
			want:      []string{},
		},
		{
			name:      "script without stack",
			initiator: traffic.ScriptInitiator{},
			want:      []string{},
			logged:    true,
		},
		{
			name:      "unknown",
			initiator: traffic.UnknownInitiator{Type: "preflight"},
			want:      []string{},
			logged:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			req := &traffic.Request{ID: "7", Initiator: tt.initiator}
			got := ExtractInitiators(req, logger.NewWriter(&buf, "debug"))
			assert.Equal(t, tt.want, got)
			if tt.logged {
				assert.Contains(t, buf.String(), `"requestId":"7"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
