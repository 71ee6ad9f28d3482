// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	EngineNotAvailableId Id = iota + 1
	ContainerNotFoundId
	ContainerNotRunningId
	EmptyCommandId
	ExecStartFailedId
	CorruptedStreamId
	ExitCodeUnresolvedId
	TransportFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // slug accepted by 'execstream issue'
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

// Title returns the first markdown heading of the message.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by its links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("\n- " + string(link))
		}
		for _, link := range i.extLinks {
			sb.WriteString("\n- " + string(link))
		}
	}
	return sb.String()
}

// Render renders the issue for a terminal. stylePath is a glamour style name
// ("dark", "light", "notty", "auto") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	engineNotAvailableIssue = &Issue{
		id:   EngineNotAvailableId,
		name: "engine-not-available",
		mdMsg: `
# No container engine answered!

execstream talks to Docker or Podman through the Docker Engine API, and neither
responded on its socket.

## Things you can try:
- Start the engine (for Podman: ` + "`systemctl --user start podman.socket`" + `)
- Point execstream at the socket explicitly:
~~~
$ execstream --host unix:///run/user/1000/podman/podman.sock run web -- true
~~~
- Check ` + "`DOCKER_HOST`" + ` in your environment
- Run ` + "`execstream engine`" + ` to see which engine is detected`,
		docLinks: []HttpLink{"https://docs.docker.com/engine/daemon/start/"},
		extLinks: []HttpLink{"https://docs.podman.io/en/latest/markdown/podman-system-service.1.html"},
	}

	containerNotFoundIssue = &Issue{
		id:   ContainerNotFoundId,
		name: "container-not-found",
		mdMsg: `
# Container not found!

The engine does not know the container you asked to exec into.

## Things you can try:
- List running containers and check the name or id:
~~~
$ docker ps
~~~
- Make sure you are talking to the right engine (Docker and Podman keep
  separate container lists)`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/cli/docker/container/ls/"},
	}

	containerNotRunningIssue = &Issue{
		id:   ContainerNotRunningId,
		name: "container-not-running",
		mdMsg: `
# Container is not running!

Commands can only be executed in a running container. The container exists
but is stopped or paused.

## Things you can try:
- Start it:
~~~
$ docker start <container>
~~~
- Unpause it if it was paused:
~~~
$ docker unpause <container>
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/cli/docker/container/exec/"},
	}

	emptyCommandIssue = &Issue{
		id:   EmptyCommandId,
		name: "empty-command",
		mdMsg: `
# No command given!

An exec needs at least the program to run.

## Things you can try:
- Pass the argv after ` + "`--`" + `:
~~~
$ execstream run web -- ls -l /
~~~
- Or pass a command line with ` + "`-c`" + `:
~~~
$ execstream run web -c "ls -l /"
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/cli/docker/container/exec/"},
	}

	execStartFailedIssue = &Issue{
		id:   ExecStartFailedId,
		name: "exec-start-failed",
		mdMsg: `
# The exec session could not be started!

The engine refused to create or start the exec session, so no output was
produced.

## Things you can try:
- Check that the user exists in the image when using ` + "`--user`" + `
- Check that the working directory exists when using ` + "`--workdir`" + `
- Privileged execs may be refused by rootless engines`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/api/engine/"},
	}

	corruptedStreamIssue = &Issue{
		id:   CorruptedStreamId,
		name: "corrupted-stream",
		mdMsg: `
# The exec output stream is corrupted!

Exec output arrives as frames with an 8-byte header: one byte for the stream
(1 = stdout, 2 = stderr), three reserved bytes and a big-endian payload length.
A frame broke these rules, so reading stopped.

## Things you can try:
- Use ` + "`--tty`" + ` if the exec was created with a terminal elsewhere
- Check for proxies between you and the engine socket that rewrite traffic
- Raise or disable ` + "`exec.max_frame_size`" + ` if a legitimate frame was rejected`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/api/engine/version/v1.47/#tag/Container/operation/ContainerAttach"},
	}

	exitCodeUnresolvedIssue = &Issue{
		id:   ExitCodeUnresolvedId,
		name: "exit-code-unresolved",
		mdMsg: `
# The exit code could not be determined!

The output ended but the engine never reported the exec session as finished,
or forgot about it.

## Things you can try:
- Raise ` + "`exec.poll_attempts`" + ` or ` + "`exec.poll_interval`" + ` in your configuration
- Check that the engine is not overloaded`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/api/engine/version/v1.47/#tag/Exec/operation/ExecInspect"},
	}

	transportFailedIssue = &Issue{
		id:   TransportFailedId,
		name: "transport-failed",
		mdMsg: `
# Reading the exec output failed!

The connection to the engine broke while output was being read. Output
received before the failure has been printed; the rest is lost.

## Things you can try:
- Check that the engine is still running
- Retry the command; transport failures are not retried automatically`,
		docLinks: []HttpLink{"https://docs.docker.com/engine/daemon/troubleshoot/"},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The configuration file is not valid CUE or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ execstream config show
~~~
- Write a fresh default file:
~~~
$ execstream config init
~~~
- Override single values with ` + "`EXECSTREAM_*`" + ` environment variables`,
		docLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		name: "permission-denied",
		mdMsg: `
# Permission denied on the engine socket!

Your user may not talk to the container engine socket.

## Things you can try:
- Add your user to the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~
- Use rootless Podman and its user socket`,
		docLinks: []HttpLink{"https://docs.docker.com/engine/install/linux-postinstall/"},
	}

	issues = map[Id]*Issue{
		engineNotAvailableIssue.Id():  engineNotAvailableIssue,
		containerNotFoundIssue.Id():   containerNotFoundIssue,
		containerNotRunningIssue.Id(): containerNotRunningIssue,
		emptyCommandIssue.Id():        emptyCommandIssue,
		execStartFailedIssue.Id():     execStartFailedIssue,
		corruptedStreamIssue.Id():     corruptedStreamIssue,
		exitCodeUnresolvedIssue.Id():  exitCodeUnresolvedIssue,
		transportFailedIssue.Id():     transportFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	all := maps.Values(issues)
	slices.SortFunc(all, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return all
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by name.
func Lookup(name string) *Issue {
	for _, is := range issues {
		if is.name == name {
			return is
		}
	}
	return nil
}
