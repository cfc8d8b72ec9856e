package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ProcessRuntime provisions the sandbox by running the template's own
// toolchain (npm install, vite dev server) in a scratch directory with a
// scrubbed environment.
type ProcessRuntime struct {
	Root       string // project root; created under os.TempDir when empty
	InstallCmd []string
	ServeCmd   []string
	// StartupTimeout bounds the wait for the dev server to report its URL.
	StartupTimeout time.Duration

	serve  *exec.Cmd
	cancel context.CancelFunc
}

func NewProcessRuntime() *ProcessRuntime {
	return &ProcessRuntime{
		InstallCmd:     []string{"npm", "install", "--no-audit", "--no-fund"},
		ServeCmd:       []string{"npm", "run", "dev", "--", "--host", "127.0.0.1"},
		StartupTimeout: 2 * time.Minute,
	}
}

func (r *ProcessRuntime) Prepare(ctx context.Context) error {
	if r.Root != "" {
		return os.MkdirAll(r.Root, 0o755)
	}
	root, err := os.MkdirTemp("", "uismith-sandbox-*")
	if err != nil {
		return err
	}
	r.Root = root
	return nil
}

func (r *ProcessRuntime) MkdirAll(path string) error {
	return os.MkdirAll(filepath.Join(r.Root, filepath.FromSlash(path)), 0o755)
}

func (r *ProcessRuntime) WriteFile(path string, content []byte) error {
	return os.WriteFile(filepath.Join(r.Root, filepath.FromSlash(path)), content, 0o644)
}

func (r *ProcessRuntime) Install(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, r.InstallCmd[0], r.InstallCmd[1:]...)
	cmd.Dir = r.Root
	cmd.Env = scrubEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		if exit, ok := err.(*exec.ExitError); ok {
			log.Printf("sandbox: install failed:\n%s", out)
			return exit.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// devServerURL matches the address lines vite and most node dev servers
// print on startup.
var devServerURL = regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1):(\d+)`)

func (r *ProcessRuntime) StartDevServer(ctx context.Context) (ServerInfo, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, r.ServeCmd[0], r.ServeCmd[1:]...)
	cmd.Dir = r.Root
	cmd.Env = scrubEnv()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return ServerInfo{}, err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		cancel()
		return ServerInfo{}, err
	}
	r.serve = cmd
	r.cancel = cancel

	found := make(chan ServerInfo, 1)
	go scanForURL(stdout, found)

	timeout := r.StartupTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	select {
	case info := <-found:
		return info, nil
	case <-time.After(timeout):
		cancel()
		return ServerInfo{}, fmt.Errorf("dev server did not report an address within %s", timeout)
	case <-ctx.Done():
		cancel()
		return ServerInfo{}, ctx.Err()
	}
}

func scanForURL(out io.Reader, found chan<- ServerInfo) {
	sc := bufio.NewScanner(out)
	reported := false
	for sc.Scan() {
		line := sc.Text()
		log.Printf("sandbox: dev server: %s", line)
		if reported {
			continue
		}
		if m := devServerURL.FindStringSubmatch(line); m != nil {
			port, _ := strconv.Atoi(m[1])
			found <- ServerInfo{Port: port, URL: m[0]}
			reported = true
		}
	}
}

func (r *ProcessRuntime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.serve != nil {
		r.serve.Wait()
	}
	if r.Root != "" && strings.HasPrefix(r.Root, os.TempDir()) {
		return os.RemoveAll(r.Root)
	}
	return nil
}

// scrubEnv keeps only what node tooling needs; the sandbox must not see the
// host process's credentials.
func scrubEnv() []string {
	keep := []string{"PATH", "HOME", "LANG", "TMPDIR", "NODE_ENV"}
	var env []string
	for _, k := range keep {
		if v, ok := os.LookupEnv(k); ok {
			env = append(env, k+"="+v)
		}
	}
	return env
}
