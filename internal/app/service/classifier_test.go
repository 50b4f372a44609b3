package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKeys(t *testing.T) {
	tests := []struct {
		name          string
		balances      map[string]string
		wantPrimary   []string
		wantSecondary []string
		wantOpaque    []string
	}{
		{
			name: "three buckets",
			balances: map[string]string{
				"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48":     "1",
				"bsc:0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56": "2",
				"ethereum": "3",
			},
			wantPrimary:   []string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
			wantSecondary: []string{"0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"},
			wantOpaque:    []string{"ethereum"},
		},
		{
			name: "prefix test is case sensitive",
			balances: map[string]string{
				"0XABC":     "1",
				"BSC:0xdef": "2",
			},
			wantOpaque: []string{"0XABC", "BSC:0xdef"},
		},
		{
			name: "secondary prefix stripped before lookup",
			balances: map[string]string{
				"bsc:0xABC": "1",
			},
			wantSecondary: []string{"0xABC"},
		},
		{
			name:     "empty input",
			balances: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := classifyKeys(tt.balances)
			assert.ElementsMatch(t, tt.wantPrimary, keys.primary)
			assert.ElementsMatch(t, tt.wantSecondary, keys.secondary)
			assert.ElementsMatch(t, tt.wantOpaque, keys.opaque)
		})
	}
}
