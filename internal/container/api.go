// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

type (
	// apiClient is the subset of the Docker Engine API client used by APIEngine.
	// *client.Client satisfies it; tests substitute a fake.
	apiClient interface {
		Ping(ctx context.Context) (types.Ping, error)
		ServerVersion(ctx context.Context) (types.Version, error)
		ContainerExecCreate(ctx context.Context, container string, options containertypes.ExecOptions) (containertypes.ExecCreateResponse, error)
		ContainerExecAttach(ctx context.Context, execID string, options containertypes.ExecAttachOptions) (types.HijackedResponse, error)
		ContainerExecInspect(ctx context.Context, execID string) (containertypes.ExecInspect, error)
		Close() error
	}

	// APIEngine implements Engine over the Docker Engine HTTP API. Podman serves
	// the same API on its compat socket, so both engines share this type.
	APIEngine struct {
		name   EngineType
		host   string
		client apiClient
	}

	// APIEngineOption configures an APIEngine.
	APIEngineOption func(*APIEngine)

	// hijackedStream adapts a hijacked attach connection to io.ReadCloser.
	hijackedStream struct {
		resp types.HijackedResponse
		once sync.Once
	}
)

// withAPIClient replaces the API client (used by tests).
func withAPIClient(c apiClient) APIEngineOption {
	return func(e *APIEngine) {
		e.client = c
	}
}

// NewAPIEngine creates an engine talking to host. An empty host uses the
// standard DOCKER_HOST / DOCKER_* environment.
func NewAPIEngine(name EngineType, host string, opts ...APIEngineOption) (*APIEngine, error) {
	e := &APIEngine{name: name, host: host}
	for _, opt := range opts {
		opt(e)
	}
	if e.client != nil {
		return e, nil
	}

	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		clientOpts = append(clientOpts, client.WithHost(host))
	}
	c, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s API client: %w", name, err)
	}
	e.client = c
	return e, nil
}

// Name returns the engine name.
func (e *APIEngine) Name() string {
	return string(e.name)
}

// Host returns the configured endpoint, empty when taken from the environment.
func (e *APIEngine) Host() string {
	return e.host
}

// Available checks if the engine answers a ping.
func (e *APIEngine) Available(ctx context.Context) bool {
	_, err := e.client.Ping(ctx)
	return err == nil
}

// Version returns the engine version.
func (e *APIEngine) Version(ctx context.Context) (string, error) {
	v, err := e.client.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", e.name, err)
	}
	return v.Version, nil
}

// CreateExec registers an exec session in containerID.
func (e *APIEngine) CreateExec(ctx context.Context, containerID ContainerID, cfg ExecConfig) (ExecID, error) {
	if err := containerID.Validate(); err != nil {
		return "", err
	}

	resp, err := e.client.ContainerExecCreate(ctx, string(containerID), containertypes.ExecOptions{
		User:         cfg.User,
		Privileged:   cfg.Privileged,
		Tty:          cfg.TTY,
		AttachStdout: cfg.AttachStdout,
		AttachStderr: cfg.AttachStderr,
		Env:          cfg.EnvList(),
		WorkingDir:   cfg.WorkDir,
		Cmd:          cfg.Command,
	})
	if err != nil {
		return "", e.classify("create exec in "+string(containerID), err)
	}
	return ExecID(resp.ID), nil
}

// StartExec starts the session attached and returns the hijacked output stream.
// Closing the stream closes the connection.
func (e *APIEngine) StartExec(ctx context.Context, id ExecID, opts StartOptions) (io.ReadCloser, error) {
	resp, err := e.client.ContainerExecAttach(ctx, string(id), containertypes.ExecAttachOptions{
		Tty: opts.TTY,
	})
	if err != nil {
		return nil, e.classify("start exec "+string(id), err)
	}
	return &hijackedStream{resp: resp}, nil
}

// InspectExec reports the session state.
func (e *APIEngine) InspectExec(ctx context.Context, id ExecID) (ExecState, error) {
	info, err := e.client.ContainerExecInspect(ctx, string(id))
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return ExecState{}, fmt.Errorf("inspect exec %s: %w: %w", id, ErrExecNotFound, err)
		}
		return ExecState{}, fmt.Errorf("inspect exec %s: %w", id, err)
	}
	return ExecState{
		ID:          ExecID(info.ExecID),
		ContainerID: ContainerID(info.ContainerID),
		Running:     info.Running,
		ExitCode:    info.ExitCode,
		Pid:         info.Pid,
	}, nil
}

// Close releases the API client.
func (e *APIEngine) Close() error {
	return e.client.Close()
}

// classify maps engine API errors to the package sentinels, keeping the
// original error in the chain.
func (e *APIEngine) classify(op string, err error) error {
	switch {
	case cerrdefs.IsNotFound(err):
		return fmt.Errorf("%s: %w: %w", op, ErrContainerNotFound, err)
	case cerrdefs.IsConflict(err):
		// Docker and Podman answer 409 for exec on a stopped or paused container.
		return fmt.Errorf("%s: %w: %w", op, ErrContainerNotRunning, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (h *hijackedStream) Read(p []byte) (int, error) {
	return h.resp.Reader.Read(p)
}

func (h *hijackedStream) Close() error {
	h.once.Do(h.resp.Close)
	return nil
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		list = append(list, k+"="+env[k])
	}
	return list
}
