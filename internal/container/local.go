// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/invowk/execstream/internal/frame"
)

// DefaultSessionRetention is how long an exited local session stays
// inspectable before it is pruned.
const DefaultSessionRetention = 5 * time.Minute

type (
	// LocalEngine runs exec sessions as host processes. Output is produced in
	// the same format a container engine would send: multiplexed frames, or raw
	// terminal output when a TTY is requested. The container id is recorded but
	// otherwise ignored.
	LocalEngine struct {
		mu        sync.Mutex
		sessions  map[ExecID]*localSession
		retention time.Duration
		logger    *log.Logger
		// execCommand builds the process; tests may substitute it
		execCommand func(name string, arg ...string) *exec.Cmd
	}

	// LocalEngineOption configures a LocalEngine.
	LocalEngineOption func(*LocalEngine)

	localSession struct {
		containerID ContainerID
		cfg         ExecConfig

		mu       sync.Mutex
		started  bool
		running  bool
		exitCode int
		pid      int
		exitedAt time.Time
	}

	// ptyStream turns the EIO a Linux pty master returns after the child exits
	// into io.EOF.
	ptyStream struct {
		*os.File
	}
)

// WithLocalLogger sets the logger used for session lifecycle messages.
func WithLocalLogger(logger *log.Logger) LocalEngineOption {
	return func(e *LocalEngine) {
		e.logger = logger
	}
}

// WithSessionRetention sets how long exited sessions stay inspectable.
func WithSessionRetention(d time.Duration) LocalEngineOption {
	return func(e *LocalEngine) {
		e.retention = d
	}
}

// NewLocalEngine creates a LocalEngine.
func NewLocalEngine(opts ...LocalEngineOption) *LocalEngine {
	e := &LocalEngine{
		sessions:    make(map[ExecID]*localSession),
		retention:   DefaultSessionRetention,
		logger:      log.NewWithOptions(os.Stderr, log.Options{Prefix: "local-engine", Level: log.WarnLevel}),
		execCommand: exec.Command,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *LocalEngine) Name() string {
	return string(EngineTypeLocal)
}

// Available always reports true: the host can run processes.
func (e *LocalEngine) Available(context.Context) bool {
	return true
}

// Version returns the Go runtime version the engine was built with.
func (e *LocalEngine) Version(context.Context) (string, error) {
	return runtime.Version(), nil
}

// CreateExec records a new session. Nothing runs until StartExec. Sessions
// that exited longer ago than the retention period are pruned first.
func (e *LocalEngine) CreateExec(_ context.Context, containerID ContainerID, cfg ExecConfig) (ExecID, error) {
	if err := containerID.Validate(); err != nil {
		return "", err
	}
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return "", errors.New("create exec: empty command")
	}
	if cfg.User != "" || cfg.Privileged {
		return "", errors.New("create exec: the local engine does not support user or privileged sessions")
	}

	id := ExecID(uuid.NewString())

	e.mu.Lock()
	e.pruneLocked(time.Now())
	e.sessions[id] = &localSession{containerID: containerID, cfg: cfg}
	e.mu.Unlock()

	e.logger.Debug("exec session created", "id", id, "command", cfg.Command, "tty", cfg.TTY)
	return id, nil
}

// StartExec starts the process and returns its output stream. The session is
// marked exited before the stream reports EOF.
func (e *LocalEngine) StartExec(_ context.Context, id ExecID, opts StartOptions) (io.ReadCloser, error) {
	s, err := e.session(id)
	if err != nil {
		return nil, err
	}
	if opts.TTY != s.cfg.TTY {
		return nil, fmt.Errorf("start exec %s: tty=%v does not match the session (tty=%v)", id, opts.TTY, s.cfg.TTY)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, fmt.Errorf("start exec %s: session already started", id)
	}

	cmd := e.execCommand(s.cfg.Command[0], s.cfg.Command[1:]...)
	cmd.Dir = s.cfg.WorkDir
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.EnvList()...)
	}

	var stream io.ReadCloser
	var closeAfterWait func()
	if s.cfg.TTY {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return nil, fmt.Errorf("start exec %s: %w", id, err)
		}
		stream = ptyStream{ptmx}
	} else {
		pr, pw := io.Pipe()
		mux := frame.NewMuxer(pw)
		if s.cfg.AttachStdout {
			cmd.Stdout = mux.Writer(frame.StreamStdout)
		}
		if s.cfg.AttachStderr {
			cmd.Stderr = mux.Writer(frame.StreamStderr)
		}
		if err := cmd.Start(); err != nil {
			_ = pw.Close()
			return nil, fmt.Errorf("start exec %s: %w", id, err)
		}
		stream = pr
		closeAfterWait = func() { _ = pw.Close() }
	}

	s.started = true
	s.running = true
	s.pid = cmd.Process.Pid
	e.logger.Debug("exec session started", "id", id, "pid", s.pid)

	go func() {
		waitErr := cmd.Wait()
		code := exitCodeOf(cmd.ProcessState, waitErr)

		s.mu.Lock()
		s.running = false
		s.exitCode = code
		s.exitedAt = time.Now()
		s.mu.Unlock()
		e.logger.Debug("exec session exited", "id", id, "exit_code", code)

		if closeAfterWait != nil {
			closeAfterWait()
		}
	}()

	return stream, nil
}

// InspectExec reports the session state.
func (e *LocalEngine) InspectExec(_ context.Context, id ExecID) (ExecState, error) {
	s, err := e.session(id)
	if err != nil {
		return ExecState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ExecState{
		ID:          id,
		ContainerID: s.containerID,
		Running:     s.running,
		ExitCode:    s.exitCode,
		Pid:         s.pid,
	}, nil
}

// Remove forgets a session. Inspecting it afterwards returns ErrExecNotFound.
func (e *LocalEngine) Remove(id ExecID) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// pruneLocked drops sessions that exited before now minus the retention
// period. e.mu must be held.
func (e *LocalEngine) pruneLocked(now time.Time) {
	for id, s := range e.sessions {
		s.mu.Lock()
		expired := !s.exitedAt.IsZero() && now.Sub(s.exitedAt) > e.retention
		s.mu.Unlock()
		if expired {
			delete(e.sessions, id)
			e.logger.Debug("exec session pruned", "id", id)
		}
	}
}

func (e *LocalEngine) session(id ExecID) (*localSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("exec %s: %w", id, ErrExecNotFound)
	}
	return s, nil
}

// exitCodeOf reports a process exit status the way container engines do:
// 128+signal for signaled processes.
func exitCodeOf(state *os.ProcessState, waitErr error) int {
	if state == nil {
		if waitErr != nil {
			return 1
		}
		return 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func (p ptyStream) Read(b []byte) (int, error) {
	n, err := p.File.Read(b)
	if errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	return n, err
}
