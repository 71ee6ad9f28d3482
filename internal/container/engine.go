// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
	EngineTypeLocal  EngineType = "local"
)

var (
	// ErrContainerNotFound is returned when the target container does not exist.
	ErrContainerNotFound = errors.New("container not found")

	// ErrContainerNotRunning is returned when an exec targets a stopped container.
	ErrContainerNotRunning = errors.New("container is not running")

	// ErrExecNotFound is returned when an exec session is unknown to the engine,
	// typically because it was already cleaned up.
	ErrExecNotFound = errors.New("exec session not found")

	// ErrInvalidContainerID is the sentinel error wrapped by InvalidContainerIDError.
	ErrInvalidContainerID = errors.New("invalid container id")

	// ErrInvalidEngineType is returned for engine names that are not recognized.
	ErrInvalidEngineType = errors.New("invalid engine type")
)

type (
	// Engine is the exec session lifecycle of a container engine.
	Engine interface {
		// Name returns the engine name (docker, podman or local)
		Name() string
		// Available checks if the engine answers on its endpoint
		Available(ctx context.Context) bool
		// Version returns the engine version
		Version(ctx context.Context) (string, error)

		// CreateExec registers a new exec session in a running container
		CreateExec(ctx context.Context, containerID ContainerID, cfg ExecConfig) (ExecID, error)
		// StartExec starts the session attached and returns its output stream.
		// The stream is multiplexed unless the session was created with a TTY.
		StartExec(ctx context.Context, id ExecID, opts StartOptions) (io.ReadCloser, error)
		// InspectExec reports whether the session is still running and its exit code
		InspectExec(ctx context.Context, id ExecID) (ExecState, error)
	}

	// EngineType identifies the container engine type
	EngineType string

	// ContainerID is a container name or id as accepted by the engine.
	ContainerID string

	// InvalidContainerIDError is returned when a ContainerID is empty or whitespace-only.
	InvalidContainerIDError struct {
		Value ContainerID
	}

	// ExecID is the opaque handle of an exec session.
	ExecID string

	// ExecConfig describes the exec session to create.
	ExecConfig struct {
		// Command is the argv to execute
		Command []string
		// TTY allocates a pseudo-terminal; output is then not multiplexed
		TTY bool
		// AttachStdout and AttachStderr attach the process output streams
		AttachStdout bool
		AttachStderr bool
		// Env holds extra environment variables
		Env map[string]string
		// WorkDir is the working directory inside the container
		WorkDir string
		// User runs the command as this user (name or uid[:gid])
		User string
		// Privileged runs the command with extended privileges
		Privileged bool
	}

	// StartOptions controls how an exec session is started.
	StartOptions struct {
		// TTY must match the TTY flag the session was created with
		TTY bool
	}

	// ExecState is the engine's view of an exec session.
	ExecState struct {
		ID          ExecID
		ContainerID ContainerID
		Running     bool
		ExitCode    int
		Pid         int
	}

	// ErrEngineNotAvailable is returned when a container engine is not available
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}
)

// String returns the string representation of the ContainerID.
func (c ContainerID) String() string { return string(c) }

// Validate returns an error if the ContainerID is empty or whitespace-only.
func (c ContainerID) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return &InvalidContainerIDError{Value: c}
	}
	return nil
}

// Error implements the error interface for InvalidContainerIDError.
func (e *InvalidContainerIDError) Error() string {
	return fmt.Sprintf("invalid container id %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidContainerID for errors.Is() compatibility.
func (e *InvalidContainerIDError) Unwrap() error { return ErrInvalidContainerID }

// String returns the string representation of the ExecID.
func (id ExecID) String() string { return string(id) }

// String returns the string representation of the EngineType.
func (t EngineType) String() string { return string(t) }

// Validate returns an error if the EngineType is not a known engine.
func (t EngineType) Validate() error {
	switch t {
	case EngineTypeDocker, EngineTypePodman, EngineTypeLocal:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: docker, podman, local)", ErrInvalidEngineType, string(t))
	}
}

// EnvList returns Env in KEY=VALUE form, sorted by key.
func (c ExecConfig) EnvList() []string {
	return envList(c.Env)
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference. host overrides
// the engine endpoint (e.g. unix:///run/podman/podman.sock); empty uses the
// engine's default. Docker and Podman fall back to each other.
func NewEngine(ctx context.Context, preferredType EngineType, host string) (Engine, error) {
	switch preferredType {
	case EngineTypeLocal:
		return NewLocalEngine(), nil

	case EngineTypePodman:
		engine := firstAvailable(ctx,
			func() (*APIEngine, error) { return NewPodmanEngine(host) },
			// Fall back to Docker
			func() (*APIEngine, error) { return NewDockerEngine("") },
		)
		if engine == nil {
			return nil, &ErrEngineNotAvailable{
				Engine: "podman",
				Reason: "podman socket is not reachable, and docker fallback is also not available",
			}
		}
		return engine, nil

	case EngineTypeDocker:
		engine := firstAvailable(ctx,
			func() (*APIEngine, error) { return NewDockerEngine(host) },
			// Fall back to Podman
			func() (*APIEngine, error) { return NewPodmanEngine("") },
		)
		if engine == nil {
			return nil, &ErrEngineNotAvailable{
				Engine: "docker",
				Reason: "docker daemon is not reachable, and podman fallback is also not available",
			}
		}
		return engine, nil

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// firstAvailable returns the first candidate that answers on its endpoint.
// Candidates that do not answer are closed.
func firstAvailable(ctx context.Context, candidates ...func() (*APIEngine, error)) *APIEngine {
	for _, newEngine := range candidates {
		engine, err := newEngine()
		if err != nil {
			continue
		}
		if engine.Available(ctx) {
			return engine
		}
		_ = engine.Close()
	}
	return nil
}
