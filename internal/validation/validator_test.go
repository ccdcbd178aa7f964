package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChatRequest(t *testing.T) {
	v := NewValidator(1024)

	tests := []struct {
		name     string
		message  string
		fileName string
		size     int64
		fields   []string
	}{
		{"plain message", "What is a JOIN?", "", 0, nil},
		{"message with file", "summarise", "notes.pdf", 100, nil},
		{"empty message", "  ", "", 0, []string{"message"}},
		{"message too long", strings.Repeat("a", MaxMessageLength+1), "", 0, []string{"message"}},
		{"path in file name", "summarise", "../etc/passwd", 10, []string{"file"}},
		{"file too large", "summarise", "big.pdf", 2048, []string{"file"}},
		{"everything wrong", "", "a/b.txt", 4096, []string{"message", "file", "file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateChatRequest(tt.message, tt.fileName, tt.size)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidateChatRequest_NoSizeLimit(t *testing.T) {
	assert.Empty(t, NewValidator(0).ValidateChatRequest("hi", "huge.pdf", 1<<40))
}
