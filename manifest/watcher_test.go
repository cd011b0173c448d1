package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/effectus/adaptation/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// dropManifest moves a manifest into dir atomically
func dropManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	staged := writeManifest(t, dir, name+".tmp", content)
	path := filepath.Join(dir, name)
	require.NoError(t, os.Rename(staged, path))
	return path
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for manifest event")
		return Event{}
	}
}

func TestWatcher(t *testing.T) {
	m, fx := newTarget()
	require.NoError(t, m.Converters().Register("uk-to-eu", testutils.Wrap(fx.EUStandard, "uk-to-eu")))

	dir := t.TempDir()
	existing := writeManifest(t, dir, "00-types.yaml", "types:\n  - name: travel.Kit\n    provides: [plugs.UKStandard]\n")

	events := make(chan Event, 16)
	watcher := NewWatcher(dir, m, OnEvent(func(e Event) { events <- e }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	event := waitEvent(t, events)
	require.NoError(t, event.Err)
	assert.Equal(t, existing, event.Path)
	assert.Empty(t, event.Factories)

	kit := fx.Catalog.MustLookup("travel.Kit")
	_, err := m.Adapt(testutils.New(kit), fx.EUStandard)
	require.Error(t, err, "no offer yet")

	offers := dropManifest(t, dir, "10-offers.yaml", "offers:\n  - \"plugs.UKStandard -> plugs.EUStandard via uk-to-eu\"\n")
	event = waitEvent(t, events)
	require.NoError(t, event.Err)
	assert.Equal(t, offers, event.Path)
	require.Len(t, event.Factories, 1)

	out, err := m.Adapt(testutils.New(kit), fx.EUStandard)
	require.NoError(t, err)
	assert.Equal(t, "uk-to-eu", testutils.Marker(out))

	broken := dropManifest(t, dir, "20-broken.yaml", "offers: [\n")
	event = waitEvent(t, events)
	assert.Equal(t, broken, event.Path)
	assert.Error(t, event.Err)

	assert.Equal(t, []string{existing, offers}, watcher.Applied())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	m, _ := newTarget()
	watcher := NewWatcher(filepath.Join(t.TempDir(), "missing"), m)
	assert.Error(t, watcher.Run(context.Background()))
}

func TestWatcherRetriesFailedApply(t *testing.T) {
	m, _ := newTarget()
	dir := t.TempDir()
	derived := "types:\n  - name: shop.Derived\n    bases: [shop.Base]\n"
	path := writeManifest(t, dir, "20-derived.yaml", derived)

	events := make(chan Event, 16)
	watcher := NewWatcher(dir, m, OnEvent(func(e Event) { events <- e }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	event := waitEvent(t, events)
	assert.Equal(t, path, event.Path)
	require.Error(t, event.Err)
	assert.Empty(t, watcher.Applied())
	_, found := m.Catalog().Lookup("shop.Derived")
	assert.False(t, found)

	base := dropManifest(t, dir, "10-base.yaml", "types:\n  - name: shop.Base\n")
	event = waitEvent(t, events)
	require.NoError(t, event.Err)
	assert.Equal(t, base, event.Path)

	dropManifest(t, dir, "20-derived.yaml", derived)
	event = waitEvent(t, events)
	require.NoError(t, event.Err)
	assert.Equal(t, path, event.Path)
	_, found = m.Catalog().Lookup("shop.Derived")
	assert.True(t, found)
	assert.Equal(t, []string{base, path}, watcher.Applied())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
