package sandbox

import "context"

// Runtime is the environment-specific half of provisioning: an isolated
// filesystem root plus the package-install and dev-server commands that run
// inside it. The Provisioner drives it through the state machine.
type Runtime interface {
	// Prepare creates the isolated root. Called once, before anything else.
	Prepare(ctx context.Context) error
	// MkdirAll recreates a directory from the template archive.
	MkdirAll(path string) error
	// WriteFile overwrites one UTF-8 file relative to the root. The running
	// dev server's own hot reload picks up changes; nothing is restarted.
	WriteFile(path string, content []byte) error
	// Install runs the package-install step and returns its exit code.
	Install(ctx context.Context) (int, error)
	// StartDevServer spawns the dev server and resolves once it announces
	// it is listening.
	StartDevServer(ctx context.Context) (ServerInfo, error)
	// Close tears the runtime down (process kill, scratch dir removal).
	Close() error
}

// TemplateSource resolves the starter project archive (zip bytes).
type TemplateSource func(ctx context.Context) ([]byte, error)
