package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/config"
)

// DefaultFactory builds the protocol client matching a server's transport.
func DefaultFactory() ClientFactory {
	return func(cfg config.MCPServerConfig) (Client, error) {
		switch cfg.Transport {
		case "stdio":
			if cfg.Command == "" {
				return nil, errors.New("stdio server needs a command")
			}
			return &processClient{cfg: cfg}, nil
		case "sse":
			if cfg.URL == "" {
				return nil, errors.New("sse server needs a url")
			}
			return &sseClient{url: cfg.URL}, nil
		default:
			return nil, errors.Errorf("unknown transport %q", cfg.Transport)
		}
	}
}

// processClient speaks JSON-RPC over the stdio of a spawned server
// process. Only the initialize and tools/list calls are issued here; tool
// invocation goes through the engine layer.
type processClient struct {
	cfg config.MCPServerConfig

	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Reader
	tools int
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *processClient) Connect(ctx context.Context) error {
	cmd := exec.Command(c.cfg.Command, c.cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", c.cfg.Command)
	}
	c.cmd = cmd
	c.stdin = stdin
	c.out = bufio.NewReader(stdout)

	if _, err := c.call(ctx, 1, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]string{"name": "wombat"},
		"capabilities":    map[string]any{},
	}); err != nil {
		_ = c.Close()
		return errors.Wrap(err, "initialize")
	}
	result, err := c.call(ctx, 2, "tools/list", nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "mcp").Str("server", c.cfg.Name).Msg("tools/list failed")
		return nil
	}
	var listed struct {
		Tools []json.RawMessage `json:"tools"`
	}
	if err := json.Unmarshal(result, &listed); err == nil {
		c.tools = len(listed.Tools)
	}
	return nil
}

// call issues one JSON-RPC request over the server's stdio. The pipe
// write and read run on a separate goroutine so a wedged server cannot
// hang the caller past ctx.
func (c *processClient) call(ctx context.Context, id int, method string, params any) (json.RawMessage, error) {
	raw, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	type rpcResult struct {
		line []byte
		err  error
	}
	done := make(chan rpcResult, 1)
	go func() {
		if _, err := c.stdin.Write(append(raw, '\n')); err != nil {
			done <- rpcResult{err: errors.Wrap(err, "write request")}
			return
		}
		line, err := c.out.ReadBytes('\n')
		done <- rpcResult{line: line, err: errors.Wrap(err, "read response")}
	}()

	var line []byte
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		line = r.line
	}

	var resp rpcResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, errors.Wrap(err, "parse response")
	}
	if resp.Error != nil {
		return nil, errors.New(resp.Error.Message)
	}
	return resp.Result, nil
}

func (c *processClient) Close() error {
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	return nil
}

func (c *processClient) ToolCount() int { return c.tools }

// sseClient verifies the remote endpoint is reachable. Streaming sessions
// are established per tool call, not held open here.
type sseClient struct {
	url string
}

func (c *sseClient) Connect(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "reach %s", c.url)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return errors.Errorf("endpoint %s answered %d", c.url, resp.StatusCode)
	}
	return nil
}

func (c *sseClient) Close() error   { return nil }
func (c *sseClient) ToolCount() int { return 0 }
