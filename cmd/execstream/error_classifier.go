// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"

	"github.com/invowk/execstream/internal/config"
	"github.com/invowk/execstream/internal/container"
	"github.com/invowk/execstream/internal/execout"
	"github.com/invowk/execstream/internal/issue"
)

// issueSuggestions are the short hints printed under a failure of each kind.
// The issue page has the long form.
var issueSuggestions = map[issue.Id][]string{
	issue.EngineNotAvailableId: {
		"Start Docker or Podman, or pass --host with the engine socket",
		"Use --engine local to run the command on this machine instead",
	},
	issue.ContainerNotFoundId: {
		"Check the container name or id with 'docker ps' or 'podman ps'",
	},
	issue.ContainerNotRunningId: {
		"Start the container before executing commands in it",
	},
	issue.EmptyCommandId: {
		"Pass the command after --, or as a single string with -c",
	},
	issue.ExecStartFailedId: {
		"Check that the command exists in the container image",
	},
	issue.CorruptedStreamId: {
		"Use --tty only when the engine runs the session with a terminal",
		"Raise exec.max_frame_size if the command writes very large chunks",
	},
	issue.ExitCodeUnresolvedId: {
		"Raise exec.poll_attempts or exec.poll_interval in the configuration",
	},
	issue.TransportFailedId: {
		"Check the connection to the engine and retry",
	},
	issue.PermissionDeniedId: {
		"Check that your user may access the engine socket",
	},
}

// classifyError maps a failure to its issue catalog id, or 0 when the catalog
// has no entry for it. More specific causes are checked before the exec error
// kinds that wrap them.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	var notAvailable *container.ErrEngineNotAvailable
	switch {
	case errors.As(err, &notAvailable):
		return issue.EngineNotAvailableId
	case errors.Is(err, execout.ErrEmptyCommand):
		return issue.EmptyCommandId
	case errors.Is(err, container.ErrContainerNotFound):
		return issue.ContainerNotFoundId
	case errors.Is(err, container.ErrContainerNotRunning):
		return issue.ContainerNotRunningId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, execout.ErrCorruptedStream):
		return issue.CorruptedStreamId
	case errors.Is(err, execout.ErrExitResolution):
		return issue.ExitCodeUnresolvedId
	case errors.Is(err, execout.ErrTransport):
		return issue.TransportFailedId
	case errors.Is(err, execout.ErrStartFailure):
		return issue.ExecStartFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// actionable wraps err with the operation, resource and catalog entry that
// explain it. Errors that already carry that context are returned unchanged.
func actionable(err error, operation, resource string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	id := classifyError(err)
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestions(issueSuggestions[id]...).
		WithIssue(id).
		Wrap(err).
		BuildError()
}
