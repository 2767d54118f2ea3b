package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/registry"
)

const validXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="A"/>
</xs:schema>`

const renamedXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="B"/>
</xs:schema>`

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return Event{}
	}
}

func TestWatcherReloadsChangedSchema(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.xsd")
	require.NoError(t, os.WriteFile(path, []byte(validXSD), 0o644))

	reg, err := registry.New(registry.Options{FS: os.DirFS(dir)})
	require.NoError(t, err)
	defer reg.Close()
	m, err := reg.Load(context.Background(), "a.xsd")
	require.NoError(t, err)
	require.NotNil(t, m.Lookup(kind.GlobalComplexType, "A"))

	w, err := New(Config{Root: dir, Debounce: 20 * time.Millisecond}, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`<xs:schema`), 0o644))
	ev := waitEvent(t, w)
	require.Equal(t, "a.xsd", ev.Identity)
	require.Equal(t, OpReload, ev.Op)
	require.False(t, ev.Valid)
	require.Error(t, ev.Err)
	require.False(t, m.Valid())

	require.NoError(t, os.WriteFile(path, []byte(renamedXSD), 0o644))
	for {
		ev = waitEvent(t, w)
		if ev.Valid {
			break
		}
	}
	require.True(t, m.Valid())
	require.NotNil(t, m.Lookup(kind.GlobalComplexType, "B"))

	require.NoError(t, os.Remove(path))
	for {
		ev = waitEvent(t, w)
		if ev.Op == OpDiscard {
			break
		}
	}
	require.True(t, m.Closed())

	cancel()
	require.NoError(t, <-done)
}

func TestIdentity(t *testing.T) {
	w := &Watcher{root: filepath.Clean("/schemas")}
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{path: "/schemas/a.xsd", want: "a.xsd", ok: true},
		{path: "/schemas/sub/b.xsd", want: "sub/b.xsd", ok: true},
		{path: "/other/c.xsd", ok: false},
		{path: "/schemas", ok: false},
	}
	for _, tt := range tests {
		got, ok := w.identity(tt.path)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("identity(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
