package main

import (
	"testing"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDistances(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"100, 100", []int{100, 100}, false},
		{"250 300", []int{250, 300}, false},
		{"120", []int{120}, false},
		{"", nil, true},
		{"100, ten", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDistances(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, formatDistances(got)))
		})
	}
}

func mustParse(t *testing.T, s string) []int {
	t.Helper()
	d, err := parseDistances(s)
	require.NoError(t, err)
	return d
}

func TestApplyMock(t *testing.T) {
	mock := config.Default().Mock

	applyMock(&mock, "0.8", "-0.05", "450", "bad", "0", "20s")

	assert.Equal(t, 0.8, mock.Velocity)
	assert.Equal(t, -0.05, mock.Acceleration)
	assert.Equal(t, 450, mock.TrainLength)
	assert.Equal(t, config.Default().Mock.Approach, mock.Approach, "invalid input keeps the old value")
	assert.Equal(t, config.Default().Mock.EndBlockLength, mock.EndBlockLength, "non-positive input keeps the old value")
	assert.Equal(t, 20*time.Second, mock.Period)
}
