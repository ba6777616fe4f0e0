package channels

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ExecFactory builds connectors that run an external wombat-<channel>
// helper process. The channel's settings are handed to the helper through
// WOMBAT_CHANNEL_* environment variables so tokens never appear on the
// command line.
func ExecFactory() ConnectorFactory {
	return func(name string, cfg map[string]string) (Connector, error) {
		binary := "wombat-" + name
		if _, err := exec.LookPath(binary); err != nil {
			return nil, errors.Errorf("connector binary %s is not installed", binary)
		}
		return &execConnector{name: name, binary: binary, cfg: cfg}, nil
	}
}

type execConnector struct {
	name   string
	binary string
	cfg    map[string]string

	cmd    *exec.Cmd
	cancel context.CancelFunc
	exited chan struct{}
}

func (c *execConnector) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, c.binary)
	cmd.Env = os.Environ()
	for key, value := range c.cfg {
		cmd.Env = append(cmd.Env, "WOMBAT_CHANNEL_"+strings.ToUpper(key)+"="+value)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrapf(err, "start %s", c.binary)
	}
	c.cmd = cmd
	c.cancel = cancel
	c.exited = make(chan struct{})
	go func() {
		defer close(c.exited)
		err := cmd.Wait()
		if err != nil && runCtx.Err() == nil {
			log.Warn().Err(err).Str("component", "channels").Str("channel", c.name).Msg("connector exited")
		}
	}()
	return nil
}

func (c *execConnector) Stop() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	// Ask nicely first; the context kill is the backstop.
	_ = c.cmd.Process.Signal(os.Interrupt)
	select {
	case <-c.exited:
	case <-time.After(5 * time.Second):
		c.cancel()
		<-c.exited
	}
	c.cancel()
	return nil
}
