package sl_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.Panics(t, func() {
		_ = sl.Err(nil)
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		wantJSON  bool
		wantDebug bool
	}{
		{name: "local", env: "local", wantJSON: false, wantDebug: true},
		{name: "dev", env: "dev", wantJSON: true, wantDebug: true},
		{name: "prod", env: "prod", wantJSON: true, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := sl.New(tt.env, &buf)

			log.Debug("debug line")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)

			buf.Reset()
			log.Info("sweep finished", sl.Err(errors.New("boom")))
			line := buf.Bytes()
			require.NotEmpty(t, line)

			var decoded map[string]any
			if tt.wantJSON {
				require.NoError(t, json.Unmarshal(line, &decoded))
				assert.Equal(t, "boom", decoded["error"])
			} else {
				assert.Contains(t, string(line), "error=boom")
			}
		})
	}
}
