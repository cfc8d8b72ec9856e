package sandbox

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"
)

// EmbeddedRuntime provisions the preview without a node toolchain: it
// bundles the template's entry point with esbuild and serves the result
// from an in-process HTTP server with SSE live reload. Templates used with
// it must be self-contained (vendored deps or none), so Install is a no-op.
type EmbeddedRuntime struct {
	Entry string // entry point relative to the project root

	root    string
	mu      sync.RWMutex
	bundle  []byte
	clients map[chan struct{}]struct{}
	server  *http.Server
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func NewEmbeddedRuntime() *EmbeddedRuntime {
	return &EmbeddedRuntime{
		Entry:   "src/main.tsx",
		clients: make(map[chan struct{}]struct{}),
	}
}

func (r *EmbeddedRuntime) Prepare(ctx context.Context) error {
	root, err := os.MkdirTemp("", "uismith-preview-*")
	if err != nil {
		return err
	}
	r.root = root
	return nil
}

func (r *EmbeddedRuntime) MkdirAll(path string) error {
	return os.MkdirAll(filepath.Join(r.root, filepath.FromSlash(path)), 0o755)
}

func (r *EmbeddedRuntime) WriteFile(path string, content []byte) error {
	full := filepath.Join(r.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

// Install is a no-op: embedded templates carry no package.json step.
func (r *EmbeddedRuntime) Install(ctx context.Context) (int, error) {
	return 0, nil
}

func (r *EmbeddedRuntime) StartDevServer(ctx context.Context) (ServerInfo, error) {
	if err := r.rebuild(); err != nil {
		return ServerInfo{}, fmt.Errorf("initial build: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ServerInfo{}, err
	}
	r.watcher = watcher
	if err := watcher.Add(r.root); err != nil {
		return ServerInfo{}, err
	}
	srcDir := filepath.Join(r.root, "src")
	if _, statErr := os.Stat(srcDir); statErr == nil {
		if err := watcher.Add(srcDir); err != nil {
			return ServerInfo{}, err
		}
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.watchLoop(watchCtx, watcher)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return ServerInfo{}, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handleIndex)
	mux.HandleFunc("/bundle.js", r.handleBundle)
	mux.HandleFunc("/__reload", r.handleSSE)
	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := r.server.Serve(ln); err != http.ErrServerClosed {
			log.Printf("sandbox: embedded server: %v", err)
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	return ServerInfo{Port: port, URL: fmt.Sprintf("http://127.0.0.1:%d", port)}, nil
}

func (r *EmbeddedRuntime) rebuild() error {
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{filepath.Join(r.root, filepath.FromSlash(r.Entry))},
		Bundle:      true,
		Write:       false,
		Outdir:      "out",
		Loader: map[string]api.Loader{
			".tsx": api.LoaderTSX,
			".ts":  api.LoaderTS,
			".css": api.LoaderCSS,
		},
		Platform:  api.PlatformBrowser,
		Format:    api.FormatIIFE,
		Target:    api.ES2020,
		Sourcemap: api.SourceMapNone,
		Define: map[string]string{
			"process.env.NODE_ENV": `"development"`,
		},
		LogLevel: api.LogLevelWarning,
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild: %s", result.Errors[0].Text)
	}
	var js []byte
	for _, f := range result.OutputFiles {
		if filepath.Ext(f.Path) == ".js" {
			js = f.Contents
		}
	}
	r.mu.Lock()
	r.bundle = append(js, []byte(liveReloadScript)...)
	r.mu.Unlock()
	return nil
}

func (r *EmbeddedRuntime) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".tsx" && ext != ".ts" && ext != ".css" {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				log.Printf("sandbox: change detected: %s", filepath.Base(event.Name))
				if err := r.rebuild(); err != nil {
					log.Printf("sandbox: rebuild error: %v", err)
					return
				}
				r.notifyClients()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("sandbox: watcher error: %v", err)
		}
	}
}

func (r *EmbeddedRuntime) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" && req.URL.Path != "/index.html" {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write([]byte(previewIndexHTML))
}

func (r *EmbeddedRuntime) handleBundle(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	bundle := r.bundle
	r.mu.RUnlock()
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(bundle)
}

func (r *EmbeddedRuntime) handleSSE(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.clients[ch] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.clients, ch)
		r.mu.Unlock()
		close(ch)
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-req.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func (r *EmbeddedRuntime) notifyClients() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (r *EmbeddedRuntime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
	if r.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.server.Shutdown(ctx)
	}
	if r.root != "" {
		return os.RemoveAll(r.root)
	}
	return nil
}

const previewIndexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Preview</title>
</head>
<body>
<div id="root"></div>
<script src="/bundle.js"></script>
</body>
</html>
`

const liveReloadScript = `
;(function() {
  var es = new EventSource('/__reload');
  es.onmessage = function(e) {
    if (e.data === 'reload') {
      window.location.reload();
    }
  };
  es.onerror = function() {
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
`
