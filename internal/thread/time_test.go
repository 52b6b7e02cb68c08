package thread

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int", 1700000000, 1700000000, true},
		{"int64", int64(1700000001), 1700000001, true},
		{"float64 from json", float64(1700000002), 1700000002, true},
		{"json number", json.Number("1700000003"), 1700000003, true},
		{"bad json number", json.Number("12.9e999"), 0, false},
		{"digit string", "1700000004", 1700000004, true},
		{"iso8601 utc", "2023-11-14T22:13:20Z", 1700000000, true},
		{"iso8601 offset", "2023-11-15T00:13:20+02:00", 1700000000, true},
		{"empty string", "", 0, false},
		{"padded string", "  ", 0, false},
		{"garbage string", "yesterday", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEpoch(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
