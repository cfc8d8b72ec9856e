package sandbox

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Provisioner owns the once-per-session sandbox. Boot is idempotent and
// single-flight: concurrent callers share the one in-flight provisioning
// run and its resolved handle; there is no re-provisioning after failure
// short of a process restart.
type Provisioner struct {
	runtime  Runtime
	template TemplateSource
	bootOnce sync.Once
	done     chan struct{}
	handle   *Handle
	err      error
	stateMu  sync.Mutex
	state    State
}

func New(rt Runtime, template TemplateSource) *Provisioner {
	return &Provisioner{
		runtime:  rt,
		template: template,
		state:    StateUninitialized,
	}
}

// State reports the current provisioning state.
func (p *Provisioner) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

func (p *Provisioner) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
	log.Printf("sandbox: %s", s)
}

// Boot returns the session handle, provisioning on first call. The
// provisioning run is detached from the first caller's context: abandoning
// a request leaves the boot in flight for the next caller, matching the
// once-per-session contract.
func (p *Provisioner) Boot(ctx context.Context) (*Handle, error) {
	p.bootOnce.Do(func() {
		p.done = make(chan struct{})
		go func() {
			defer close(p.done)
			p.handle, p.err = p.provision(context.Background())
		}()
	})
	select {
	case <-p.done:
		return p.handle, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provisioner) provision(ctx context.Context) (*Handle, error) {
	fail := func(step string, err error) (*Handle, error) {
		p.setState(StateFailed)
		return nil, fmt.Errorf("%w: %s: %v", ErrProvisioning, step, err)
	}

	p.setState(StateBooting)
	if err := p.runtime.Prepare(ctx); err != nil {
		return fail("boot", err)
	}

	p.setState(StateExtractingTemplate)
	archive, err := p.template(ctx)
	if err != nil {
		return fail("load template", err)
	}
	if err := UnpackTemplate(p.runtime, archive); err != nil {
		return fail("extract template", err)
	}

	p.setState(StateInstallingDependencies)
	exit, err := p.runtime.Install(ctx)
	if err != nil {
		return fail("install dependencies", err)
	}
	if exit != 0 {
		return fail("install dependencies", fmt.Errorf("exit code %d", exit))
	}

	p.setState(StateServing)
	info, err := p.runtime.StartDevServer(ctx)
	if err != nil {
		return fail("start dev server", err)
	}

	p.setState(StateReady)
	log.Printf("sandbox: dev server ready at %s", info.URL)
	return &Handle{p: p, Info: info}, nil
}

// Handle is the shared, process-wide reference to the provisioned sandbox.
type Handle struct {
	p    *Provisioner
	Info ServerInfo
}

// URL of the dev server serving the preview.
func (h *Handle) URL() string { return h.Info.URL }

// PushSource overwrites one project file. Races between pushes resolve as
// last-write-wins; the dev server's hot reload handles the rest.
func (h *Handle) PushSource(path string, content string) error {
	return h.p.runtime.WriteFile(path, []byte(content))
}
