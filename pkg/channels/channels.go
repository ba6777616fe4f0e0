// Package channels tracks the messaging integrations the assistant can
// attach to. Connector implementations are collaborators; this package
// owns their descriptors, status aggregation and running-state tracking.
package channels

import (
	"context"

	"github.com/wombatlabs/wombat/pkg/config"
)

// Descriptor is the static description of one channel integration.
type Descriptor struct {
	Name string
	// ConfigKeys maps the API-facing field names to settings keys. A
	// channel is "configured" when all required keys are present.
	ConfigKeys []string
	// Extra runtime dependency probed by the extras endpoint; empty means
	// the channel works with the core install.
	ExtraDep string
}

// Descriptors lists all supported channels in dashboard order.
var Descriptors = []Descriptor{
	{Name: "discord", ConfigKeys: []string{"bot_token"}, ExtraDep: "discord"},
	{Name: "slack", ConfigKeys: []string{"bot_token", "app_token"}, ExtraDep: "slack"},
	{Name: "whatsapp", ConfigKeys: []string{"access_token", "phone_number_id"}},
	{Name: "telegram", ConfigKeys: []string{"bot_token"}},
	{Name: "signal", ConfigKeys: []string{"phone_number"}, ExtraDep: "signal"},
	{Name: "matrix", ConfigKeys: []string{"homeserver", "access_token"}, ExtraDep: "matrix"},
	{Name: "teams", ConfigKeys: []string{"app_id", "app_password"}, ExtraDep: "teams"},
	{Name: "google_chat", ConfigKeys: []string{"service_account_json"}},
}

// Lookup returns the descriptor for a channel name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Status is the dashboard view of one channel.
type Status struct {
	Configured bool   `json:"configured"`
	Running    bool   `json:"running"`
	Autostart  bool   `json:"autostart"`
	Mode       string `json:"mode,omitempty"`
}

// Connector is a running channel integration.
type Connector interface {
	Start(ctx context.Context) error
	Stop() error
}

// IsConfigured reports whether all required config keys are present.
func IsConfigured(d Descriptor, s *config.Settings) bool {
	cfg := s.Channels[d.Name]
	if cfg == nil {
		return false
	}
	for _, key := range d.ConfigKeys {
		if cfg[key] == "" {
			return false
		}
	}
	return len(d.ConfigKeys) > 0
}

// StatusAll aggregates status for every channel.
func StatusAll(s *config.Settings, sup *Supervisor) map[string]Status {
	out := make(map[string]Status, len(Descriptors))
	for _, d := range Descriptors {
		st := Status{
			Configured: IsConfigured(d, s),
			Running:    sup.IsRunning(d.Name),
			Autostart:  s.ChannelAutostart[d.Name],
		}
		if d.Name == "whatsapp" {
			mode := s.WhatsAppMode
			if mode == "" {
				mode = "business"
			}
			st.Mode = mode
		}
		out[d.Name] = st
	}
	return out
}
