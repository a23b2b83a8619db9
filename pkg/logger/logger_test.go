package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/rs/zerolog"
	"github.com/user/codehubnotify/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{input: "", want: zerolog.InfoLevel},
		{input: "info", want: zerolog.InfoLevel},
		{input: "DEBUG", want: zerolog.DebugLevel},
		{input: "warning", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
		})
	}
}

func TestSetOutput_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, zerolog.WarnLevel)

	logger.Info().Msg("hidden message")
	logger.Warn().Str("repo", "acme/widget").Msg("visible message")

	out := buf.String()
	gt.True(t, !strings.Contains(out, "hidden message"))
	gt.String(t, out).Contains("visible message")
	gt.String(t, out).Contains(`"repo":"acme/widget"`)
}
