// Package tunnel builds and launches the SSH side of NeuroX: interactive
// shells into jobs and local port forwards for remote debugging.
//
// Commands are staged as small per-job scripts in a scratch directory and
// executed attached to the current terminal. The directory is cleared on
// startup so stale scripts never accumulate.
package tunnel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/rebryk/neurox/internal/platform"
)

// Manager stages and runs SSH commands for jobs.
//
// The key path can be updated at any time; commands built afterwards use the
// new key. All methods are safe for concurrent use.
type Manager struct {
	scratchDir string
	logger     *slog.Logger

	mu      sync.RWMutex
	rsaPath string
}

// NewManager creates a [Manager] using scratchDir for staged scripts.
//
// The directory is created if missing and any leftover scripts from a
// previous run are removed.
func NewManager(scratchDir, rsaPath string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(scratchDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	stale, err := filepath.Glob(filepath.Join(scratchDir, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scratch directory: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale script", "path", path, "error", err)
		}
	}

	return &Manager{scratchDir: scratchDir, rsaPath: rsaPath, logger: logger}, nil
}

// UpdateRSAPath replaces the private key used for subsequent connections.
func (m *Manager) UpdateRSAPath(rsaPath string) {
	m.mu.Lock()
	m.rsaPath = rsaPath
	m.mu.Unlock()
}

// SSHCommand returns the argv for an interactive SSH session into the job.
func (m *Manager) SSHCommand(job platform.JobDescription, username string) ([]string, error) {
	if !job.SSH() {
		return nil, fmt.Errorf("job %s does not accept SSH connections", job.ID)
	}

	m.mu.RLock()
	rsaPath := m.rsaPath
	m.mu.RUnlock()

	args := []string{"ssh"}
	if rsaPath != "" {
		args = append(args, "-i", rsaPath)
	}
	args = append(args, "-o", "StrictHostKeyChecking=no", username+"@"+job.SSHServer)
	return args, nil
}

// ForwardCommand returns the argv for a local port forward into the job.
// remotePort defaults to localPort when zero.
func (m *Manager) ForwardCommand(job platform.JobDescription, username string, localPort, remotePort int) ([]string, error) {
	if localPort < 1 || localPort > 65535 {
		return nil, fmt.Errorf("bad local port: %d", localPort)
	}
	if remotePort == 0 {
		remotePort = localPort
	}

	args, err := m.SSHCommand(job, username)
	if err != nil {
		return nil, err
	}

	forward := strconv.Itoa(localPort) + ":localhost:" + strconv.Itoa(remotePort)
	// insert before the destination so the argv stays "ssh [opts] dest"
	dest := args[len(args)-1]
	args = append(args[:len(args)-1], "-N", "-L", forward, dest)
	return args, nil
}

// ConnectSSH stages the job's SSH command as a script and runs it attached
// to the current terminal, blocking until the session ends.
func (m *Manager) ConnectSSH(ctx context.Context, job platform.JobDescription, username string) error {
	args, err := m.SSHCommand(job, username)
	if err != nil {
		return err
	}
	return m.runStaged(ctx, job.ID+".sh", args)
}

// Forward stages and runs a port forward, blocking until ctx is cancelled
// or the tunnel drops.
func (m *Manager) Forward(ctx context.Context, job platform.JobDescription, username string, localPort, remotePort int) error {
	args, err := m.ForwardCommand(job, username, localPort, remotePort)
	if err != nil {
		return err
	}
	m.logger.Info("forwarding port", "job", job.ID, "local_port", localPort)
	return m.runStaged(ctx, job.ID+".forward.sh", args)
}

// runStaged writes argv into a scratch script and executes it.
func (m *Manager) runStaged(ctx context.Context, name string, args []string) error {
	script := filepath.Join(m.scratchDir, name)
	content := "#!/bin/sh\nexec " + shellquote.Join(args...) + "\n"
	if err := os.WriteFile(script, []byte(content), 0o700); err != nil {
		return fmt.Errorf("failed to stage command script: %w", err)
	}
	defer func() { _ = os.Remove(script) }()

	cmd := exec.CommandContext(ctx, "/bin/sh", script)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("ssh command failed: %w", err)
	}
	return nil
}
