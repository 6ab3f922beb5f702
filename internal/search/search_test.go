package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		keyword string
		want    int
	}{
		{"exact", "Gói A", "gói a", 3},
		{"prefix", "Gói ABC", "gói", 2},
		{"substring", "Combo gói lớn", "gói", 1},
		{"no match", "Rau củ", "thịt", 0},
		{"case insensitive exact", "NGUYỄN VĂN A", "nguyễn văn a", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.value, tt.keyword))
		})
	}
}
