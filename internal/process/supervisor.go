package process

import (
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for processes to
// exit after SIGTERM before falling back to SIGKILL.
const DefaultShutdownTimeout = 5 * time.Second

// Supervisor tracks child processes and terminates stragglers on
// shutdown. Safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	closed atomic.Bool
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		processes: make(map[string]*Process),
	}
}

// Start launches cmd as a tracked background process.
func (s *Supervisor) Start(name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorClosed
	}

	proc := newProcess(uuid.New().String(), name, cmd)
	if err := proc.start(); err != nil {
		return nil, err
	}

	s.processes[proc.ID] = proc
	go s.reap(proc)

	return proc, nil
}

// Run launches cmd and blocks until it exits, returning the exit code.
// The command stays tracked while running so shutdown can reach it.
func (s *Supervisor) Run(name string, cmd *exec.Cmd) (int, error) {
	proc, err := s.Start(name, cmd)
	if err != nil {
		return -1, err
	}

	<-proc.Done()
	return proc.ExitCode(), nil
}

// reap removes a process from tracking once it exits.
func (s *Supervisor) reap(proc *Process) {
	<-proc.Done()

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// List returns all currently tracked processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		out = append(out, p)
	}
	return out
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Shutdown terminates any still-running processes: SIGTERM first, then
// SIGKILL for whatever survives the timeout. It never panics and always
// returns within roughly the timeout; a zero timeout uses the default.
// Subsequent Start calls fail with ErrSupervisorClosed.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	defer func() {
		_ = recover() // cleanup must not propagate failures
	}()

	s.closed.Store(true)

	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	procs := s.List()
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	deadline := time.After(timeout)
	for _, p := range procs {
		select {
		case <-p.Done():
		case <-deadline:
			for _, q := range procs {
				if q.IsRunning() {
					_ = q.Kill()
				}
			}
			return
		}
	}
}
