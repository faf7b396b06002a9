package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, s KV) {
	t.Helper()

	_, ok, err := s.Get("edChoices")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("edChoices", `{"xyz":[1],"fusion":[2]}`))
	v, ok, err := s.Get("edChoices")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"xyz":[1],"fusion":[2]}`, v)

	require.NoError(t, s.Set("edChoices", `{"xyz":[],"fusion":[]}`))
	v, _, err = s.Get("edChoices")
	require.NoError(t, err)
	require.Equal(t, `{"xyz":[],"fusion":[]}`, v)
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.yaml")
	s, err := OpenYAML(path)
	require.NoError(t, err)
	exerciseKV(t, s)

	reopened, err := OpenYAML(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get("edChoices")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"xyz":[],"fusion":[]}`, v)
}

func TestYAMLFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a mapping\n"), 0o644))
	_, err := OpenYAML(path)
	require.Error(t, err)

	_, err = OpenYAML("  ")
	require.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseKV(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get("edChoices")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"xyz":[],"fusion":[]}`, v)
}

func TestNamespace(t *testing.T) {
	inner := NewMemory()
	a := Namespace(inner, "alice")
	b := Namespace(inner, "bob")
	exerciseKV(t, a)

	_, ok, err := b.Get("edChoices")
	require.NoError(t, err)
	require.False(t, ok, "namespaces must not leak into each other")

	v, ok, err := inner.Get("alice/edChoices")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"xyz":[],"fusion":[]}`, v)

	exerciseKV(t, Namespace(NewMemory(), ""))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"memory", "yaml", "sqlite"} {
		s, closeFn, err := Open(kind, filepath.Join(dir, "store."+kind))
		require.NoError(t, err, kind)
		exerciseKV(t, s)
		require.NoError(t, closeFn())
	}

	_, _, err := Open("redis", "")
	require.Error(t, err)
}
