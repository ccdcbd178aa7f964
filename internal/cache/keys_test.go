package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "embedding",
			objectType:  "vector",
			identifier:  "abc123",
			expectedKey: "queryly:embedding:vector:abc123",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "embedding",
			objectType:  "vector",
			identifier:  "abc123",
			paramsKey:   []string{},
			expectedKey: "queryly:embedding:vector:abc123",
		},
		{
			name:        "with model name",
			serviceName: "embedding",
			objectType:  "vector",
			identifier:  "abc123",
			paramsKey:   []string{"text-embedding-ada-002"},
			expectedKey: "queryly:embedding:vector:abc123:text-embedding-ada-002",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "embedding",
			objectType:  "vector",
			identifier:  "abc123",
			paramsKey:   []string{"ollama", "nomic-embed-text"},
			expectedKey: "queryly:embedding:vector:abc123:ollama_nomic-embed-text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}
