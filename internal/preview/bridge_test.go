package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uismith/internal/sandbox"
)

type memRuntime struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemRuntime() *memRuntime { return &memRuntime{files: make(map[string][]byte)} }

func (m *memRuntime) Prepare(context.Context) error { return nil }
func (m *memRuntime) MkdirAll(string) error         { return nil }
func (m *memRuntime) WriteFile(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}
func (m *memRuntime) Install(context.Context) (int, error) { return 0, nil }
func (m *memRuntime) StartDevServer(context.Context) (sandbox.ServerInfo, error) {
	return sandbox.ServerInfo{Port: 5173, URL: "http://127.0.0.1:5173"}, nil
}
func (m *memRuntime) Close() error { return nil }

func templateZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("template/src/App.tsx")
	require.NoError(t, err)
	_, err = w.Write([]byte("export default function App() { return null }"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestBridge(t *testing.T) (*Bridge, *memRuntime) {
	t.Helper()
	rt := newMemRuntime()
	prov := sandbox.New(rt, sandbox.StaticTemplate(templateZip(t)))
	return NewBridge(prov, NewNotifier()), rt
}

func TestPushBootsAndWritesEntry(t *testing.T) {
	b, rt := newTestBridge(t)

	require.NoError(t, b.Push(context.Background(), "export const x = 1;"))

	rt.mu.Lock()
	defer rt.mu.Unlock()
	assert.Equal(t, []byte("export const x = 1;"), rt.files["src/App.tsx"])
}

func TestStatusExposesURLOnlyWhenReady(t *testing.T) {
	b, _ := newTestBridge(t)

	st := b.Status()
	assert.Equal(t, sandbox.StateUninitialized, st.State)
	assert.Empty(t, st.URL)

	require.NoError(t, b.Push(context.Background(), "code"))

	st = b.Status()
	assert.Equal(t, sandbox.StateReady, st.State)
	assert.Equal(t, "http://127.0.0.1:5173", st.URL)
}

func TestPushNotifiesSubscribers(t *testing.T) {
	b, _ := newTestBridge(t)
	updates := b.Subscribe()
	defer b.Unsubscribe(updates)

	require.NoError(t, b.Push(context.Background(), "code"))

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("expected a status ping after push")
	}
}

func TestStatusFeedStreamsUpdates(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(StatusFeed(b))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var st Status
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, sandbox.StateUninitialized, st.State)

	require.NoError(t, b.Push(context.Background(), "code"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for st.State != sandbox.StateReady {
		require.NoError(t, conn.ReadJSON(&st))
	}
	assert.Equal(t, "http://127.0.0.1:5173", st.URL)
}
