// SPDX-License-Identifier: MPL-2.0

package container

import (
	"os"
	"path/filepath"
)

const (
	// rootfulPodmanSocket is where podman.socket listens for root.
	rootfulPodmanSocket = "/run/podman/podman.sock"
)

// statFunc is replaced in tests.
var statFunc = os.Stat

// NewPodmanEngine creates an engine for Podman's Docker-compatible API. An
// empty host resolves the rootless socket under XDG_RUNTIME_DIR first, then the
// rootful socket.
func NewPodmanEngine(host string, opts ...APIEngineOption) (*APIEngine, error) {
	if host == "" {
		host = PodmanSocketHost()
	}
	return NewAPIEngine(EngineTypePodman, host, opts...)
}

// PodmanSocketHost returns the unix:// URL of the first Podman API socket
// found, or the rootful default when none exists.
func PodmanSocketHost() string {
	var candidates []string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		candidates = append(candidates, filepath.Join(runtimeDir, "podman", "podman.sock"))
	}
	candidates = append(candidates, rootfulPodmanSocket)

	for _, path := range candidates {
		if info, err := statFunc(path); err == nil && info.Mode()&os.ModeSocket != 0 {
			return "unix://" + path
		}
	}
	return "unix://" + rootfulPodmanSocket
}
