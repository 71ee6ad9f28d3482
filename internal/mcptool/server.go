// SPDX-License-Identifier: MPL-2.0

package mcptool

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/execout"
)

// ToolName is the name the exec tool is registered under.
const ToolName = "container_exec"

// ErrNoCommand is returned when neither command nor argv is given.
var ErrNoCommand = errors.New("either command or argv is required")

type (
	// ExecArgs is the input of the container_exec tool.
	ExecArgs struct {
		Container string            `json:"container" jsonschema:"container name or ID"`
		Command   string            `json:"command,omitempty" jsonschema:"command line, split into words with shell quoting rules but without expansion"`
		Argv      []string          `json:"argv,omitempty" jsonschema:"command as an argument vector; takes precedence over command"`
		Env       map[string]string `json:"env,omitempty" jsonschema:"extra environment variables"`
		WorkDir   string            `json:"workdir,omitempty" jsonschema:"working directory inside the container"`
		User      string            `json:"user,omitempty" jsonschema:"user to run the command as"`
		TTY       bool              `json:"tty,omitempty" jsonschema:"allocate a pseudo-terminal; all output is then reported as stdout"`
	}

	// ExecOutput is the structured result of the container_exec tool. Output
	// that is not valid UTF-8 is returned base64-encoded in the *_base64 field,
	// and the plain field is left empty.
	ExecOutput struct {
		ExitCode     int    `json:"exit_code"`
		Stdout       string `json:"stdout"`
		Stderr       string `json:"stderr"`
		StdoutBase64 string `json:"stdout_base64,omitempty"`
		StderrBase64 string `json:"stderr_base64,omitempty"`
		TTY          bool   `json:"tty,omitempty"`
	}

	handler struct {
		reader *execout.Reader
	}
)

// NewServer creates an MCP server with the exec tool registered on it.
func NewServer(reader *execout.Reader, version string) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "execstream", Version: version}, &mcp.ServerOptions{
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	})
	Register(s, reader)
	return s
}

// Register adds the exec tool to server.
func Register(server *mcp.Server, reader *execout.Reader) {
	h := &handler{reader: reader}
	mcp.AddTool(server, &mcp.Tool{
		Name: ToolName,
		Description: `Execute a command inside a running container and return its exit code, stdout and stderr.

Give the command either as argv or as a single command line. The command line is split into words
like a shell would, but variables are not expanded and pipes are not interpreted; use
argv ["sh", "-c", "..."] for shell features. A non-zero exit code is reported in exit_code, not as an error.
Output that is not valid UTF-8 is returned base64-encoded in stdout_base64 or stderr_base64.`,
	}, h.exec)
}

// Serve runs server over stdin/stdout until the client disconnects or ctx is
// cancelled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (h *handler) exec(ctx context.Context, _ *mcp.CallToolRequest, args ExecArgs) (*mcp.CallToolResult, *ExecOutput, error) {
	argv, err := args.argv()
	if err != nil {
		return errorResult(err)
	}

	opts := execout.Options{
		Demux:   true,
		TTY:     args.TTY,
		Env:     args.Env,
		WorkDir: args.WorkDir,
		User:    args.User,
	}
	res, err := h.reader.Run(ctx, container.ContainerID(args.Container), argv, opts)
	if err != nil {
		return errorResult(err)
	}

	code, _ := res.ExitCode()
	out := &ExecOutput{ExitCode: int(code), TTY: args.TTY}
	out.Stdout, out.StdoutBase64 = encodeOutput(res.Demuxed.Stdout)
	out.Stderr, out.StderrBase64 = encodeOutput(res.Demuxed.Stderr)
	return nil, out, nil
}

// encodeOutput returns b as text, or base64-encoded when it is not valid
// UTF-8 and would be mangled by JSON encoding.
func encodeOutput(b []byte) (text, encoded string) {
	if utf8.Valid(b) {
		return string(b), ""
	}
	return "", base64.StdEncoding.EncodeToString(b)
}

func (a ExecArgs) argv() ([]string, error) {
	if err := container.ContainerID(a.Container).Validate(); err != nil {
		return nil, err
	}
	if len(a.Argv) > 0 {
		return a.Argv, nil
	}
	if a.Command == "" {
		return nil, ErrNoCommand
	}
	return execout.ParseCommand(a.Command)
}

func errorResult(err error) (*mcp.CallToolResult, *ExecOutput, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("exec failed: %v", err)}},
		IsError: true,
	}, nil, nil
}
