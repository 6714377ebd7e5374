package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 9, 1, 14, 30, 15, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "planmarklogs",
			appName: "planmark",
			want:    filepath.Join("planmarklogs", "planmark.20260901_143015.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./planmarklogs",
			appName: "planmark",
			want:    filepath.Join(".", "planmarklogs", "planmark.20260901_143015.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "planmark"),
			appName: "planmark",
			want:    filepath.Join("/var", "log", "planmark", "planmark.20260901_143015.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.appName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}
