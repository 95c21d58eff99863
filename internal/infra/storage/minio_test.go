package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		endpoint string
		key      string
		want     string
	}{
		{"http://localhost:9000", "mindmaps/u1/m1.png", "http://localhost:9000/exports/mindmaps/u1/m1.png"},
		{"https://s3.example.com", "/mindmaps/u1/m1.json", "https://s3.example.com/exports/mindmaps/u1/m1.json"},
		{"//minio:9000", "a.png", "http://minio:9000/exports/a.png"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.endpoint)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, objectURL(u, "exports", tt.key))
	}
}
