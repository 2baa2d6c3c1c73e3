package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	canadaStudy := Chunk{Country: "Canada", VisaType: "Study"}
	usaWork := Chunk{Country: "usa", VisaType: "work"}

	tests := []struct {
		name   string
		filter Filter
		chunk  Chunk
		want   bool
	}{
		{name: "zero filter matches", filter: Filter{}, chunk: usaWork, want: true},
		{name: "country matches ignoring case", filter: Filter{Country: "canada"}, chunk: canadaStudy, want: true},
		{name: "country mismatch", filter: Filter{Country: "canada"}, chunk: usaWork, want: false},
		{name: "both fields match", filter: Filter{Country: "USA", VisaType: "Work"}, chunk: usaWork, want: true},
		{name: "visa mismatch", filter: Filter{Country: "usa", VisaType: "study"}, chunk: usaWork, want: false},
		{name: "whitespace field ignored", filter: Filter{Country: "  "}, chunk: usaWork, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.chunk))
		})
	}
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.True(t, Filter{Country: " "}.IsZero())
	assert.False(t, Filter{VisaType: "work"}.IsZero())
}
