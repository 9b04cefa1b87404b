package configuration

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, c.load(nil))
	require.Equal(t, "caseflow", c.Database.Name)
	require.Equal(t, ":3200", c.SocketAddress())
	require.Equal(t, "disabled", c.RLSEnforce)
	require.True(t, c.Sweep.Enabled)
}

func TestLogrusLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: "debug"}
	require.Equal(t, logrus.DebugLevel, c.LogrusLogLevel())
	c.LogLevel = "nonsense"
	require.Equal(t, logrus.ErrorLevel, c.LogrusLogLevel())
}
