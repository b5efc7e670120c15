package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElide(t *testing.T) {
	long := "/home/user/projects/fileop/internal/worker/copy_test.go"

	tests := []struct {
		name string
		path string
		max  int
		want string
	}{
		{"fits", "a/b.txt", 40, "a/b.txt"},
		{"no limit", long, 0, long},
		{"keeps both ends", long, 30, "/home/user/p...er/copy_test.go"},
		{"short limit keeps start", long, 10, "/home/u..."},
		{"tiny limit", long, 3, "/ho"},
		{"multibyte", "ファイル/データ/とても長い名前.txt", 10, "ファイル/デー..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Elide(tt.path, tt.max)
			assert.Equal(t, tt.want, got)
			if tt.max > 0 {
				assert.LessOrEqual(t, len([]rune(got)), tt.max)
			}
		})
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0 B/s"},
		{-1, "0 B/s"},
		{512, "512 B/s"},
		{1024, "1.0 KiB/s"},
		{1.5 * 1024 * 1024, "1.5 MiB/s"},
		{2.5 * 1024 * 1024 * 1024, "2.5 GiB/s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRate(tt.input))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1000000, "1,000,000"},
		{14302, "14,302"},
		{-1000, "-1,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.input))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "10 B", FormatBytes(10))
	assert.Equal(t, "5.0 GiB", FormatBytes(5<<30))
	assert.Equal(t, "-1.0 KiB", FormatBytes(-1024))
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(0.5, 10)
	assert.Equal(t, "▪▪▪▪▪□□□□□", bar)

	bar = ProgressBar(0, 10)
	assert.Equal(t, "□□□□□□□□□□", bar)

	bar = ProgressBar(1.0, 10)
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", bar)

	// Edge cases.
	assert.Equal(t, "", ProgressBar(0.5, 0))
	assert.Equal(t, "▪▪▪▪▪▪▪▪▪▪", ProgressBar(1.5, 10)) // clamp
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "3m 17s", FormatDuration(3*time.Minute+17*time.Second))
	assert.Equal(t, "1h 02m 03s", FormatDuration(1*time.Hour+2*time.Minute+3*time.Second))
}
