package logging

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		config  Config
		wantErr bool
	}{
		"default":        {config: DefaultConfig(), wantErr: false},
		"json debug":     {config: Config{Level: "debug", Format: FormatJSON}, wantErr: false},
		"unknown level":  {config: Config{Level: "chatty", Format: FormatText}, wantErr: true},
		"unknown format": {config: Config{Level: "info", Format: "xml"}, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	defer ConfigureCommandLineLogging()

	buf := new(bytes.Buffer)
	require.NoError(t, Configure(Config{Level: "warn", Format: FormatPlain}, buf))

	log.Info("hidden")
	log.Warn("shown")
	assert.Equal(t, "shown\n", buf.String())
}

func TestExtractStack(t *testing.T) {
	err := errors.WithMessage(errors.New("root"), "outer")
	assert.NotNil(t, ExtractStack(err))
	assert.Nil(t, ExtractStack(nil))
}

func TestWithStacktrace(t *testing.T) {
	logger := log.New()
	logger.Out = new(bytes.Buffer)
	err := errors.New("test error")

	entry := WithStacktrace(log.NewEntry(logger), err)
	assert.Equal(t, err, entry.Data[log.ErrorKey])
	assert.Equal(t, err.(stackTracer).StackTrace(), entry.Data[Stacktrace])
}
