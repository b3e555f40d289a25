package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty allows all", "", []string{"*"}},
		{"wildcard", "*", []string{"*"}},
		{"blank entries", "  ,  ", []string{"*"}},
		{"hr portals", "https://hr.example.com, https://careers.example.com", []string{"https://hr.example.com", "https://careers.example.com"}},
		{"trailing slash and duplicate", "https://hr.example.com/,https://hr.example.com", []string{"https://hr.example.com"}},
		{"wildcard wins", "https://hr.example.com, *", []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrigins(tt.in))
		})
	}
}
