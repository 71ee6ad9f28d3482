// SPDX-License-Identifier: MPL-2.0

package container

// NewDockerEngine creates an engine for the Docker daemon at host, or the
// daemon described by the DOCKER_HOST environment when host is empty.
func NewDockerEngine(host string, opts ...APIEngineOption) (*APIEngine, error) {
	return NewAPIEngine(EngineTypeDocker, host, opts...)
}
