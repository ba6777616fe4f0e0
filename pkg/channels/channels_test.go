package channels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wombatlabs/wombat/pkg/config"
)

type fakeConnector struct {
	started bool
	stopped bool
}

func (f *fakeConnector) Start(context.Context) error { f.started = true; return nil }
func (f *fakeConnector) Stop() error                 { f.stopped = true; return nil }

func fakeFactory(conns map[string]*fakeConnector) ConnectorFactory {
	return func(name string, _ map[string]string) (Connector, error) {
		c := &fakeConnector{}
		conns[name] = c
		return c, nil
	}
}

func TestStatusAllCoversEveryChannel(t *testing.T) {
	s := config.Defaults()
	sup := NewSupervisor(context.Background(), nil)

	statuses := StatusAll(s, sup)
	require.Len(t, statuses, 8)
	for _, name := range []string{"discord", "slack", "whatsapp", "telegram", "signal", "matrix", "teams", "google_chat"} {
		require.Contains(t, statuses, name)
	}
	require.Equal(t, "business", statuses["whatsapp"].Mode)
	require.Empty(t, statuses["discord"].Mode)
}

func TestStatusReflectsConfiguration(t *testing.T) {
	s := config.Defaults()
	s.Channels["discord"] = map[string]string{"bot_token": "tok"}
	s.ChannelAutostart["discord"] = true
	s.WhatsAppMode = "personal"
	sup := NewSupervisor(context.Background(), nil)

	statuses := StatusAll(s, sup)
	require.True(t, statuses["discord"].Configured)
	require.True(t, statuses["discord"].Autostart)
	require.False(t, statuses["discord"].Running)
	require.Equal(t, "personal", statuses["whatsapp"].Mode)

	// Slack needs both tokens.
	s.Channels["slack"] = map[string]string{"bot_token": "tok"}
	require.False(t, StatusAll(s, sup)["slack"].Configured)
}

func TestSupervisorStartStop(t *testing.T) {
	conns := map[string]*fakeConnector{}
	sup := NewSupervisor(context.Background(), fakeFactory(conns))

	require.NoError(t, sup.Start("discord", nil))
	require.True(t, sup.IsRunning("discord"))
	require.True(t, conns["discord"].started)

	err := sup.Start("discord", nil)
	require.ErrorContains(t, err, "already running")

	require.NoError(t, sup.Stop("discord"))
	require.False(t, sup.IsRunning("discord"))
	require.True(t, conns["discord"].stopped)

	require.ErrorContains(t, sup.Stop("discord"), "not running")
}

func TestSupervisorStopAll(t *testing.T) {
	conns := map[string]*fakeConnector{}
	sup := NewSupervisor(context.Background(), fakeFactory(conns))
	require.NoError(t, sup.Start("discord", nil))
	require.NoError(t, sup.Start("telegram", nil))

	sup.StopAll()
	require.False(t, sup.IsRunning("discord"))
	require.False(t, sup.IsRunning("telegram"))
	require.True(t, conns["discord"].stopped)
	require.True(t, conns["telegram"].stopped)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("discord")
	require.True(t, ok)
	require.Equal(t, []string{"bot_token"}, d.ConfigKeys)

	_, ok = Lookup("nonexistent_xyz")
	require.False(t, ok)
}
