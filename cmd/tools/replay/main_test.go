package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"exstats/internal/feed"
	"exstats/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "feed.sock")
	capture := filepath.Join(dir, "capture.jsonl")
	require.NoError(t, os.WriteFile(capture, []byte(
		`{"attacker":{"steamid":76561197960287930,"bot":false},"hitgroup":1,"dmg_health":27}`+"\n"+
			"broken\n"+
			"\n"+
			`{"attacker":{"steamid":76561197960287930,"bot":false},"hitgroup":99,"dmg_health":5}`+"\n"), 0o600))

	l, err := feed.NewListener(socket)
	require.NoError(t, err)
	events := make(chan model.DamageEvent, 4)
	unsubscribe, err := l.Observe(context.Background(), func(ev model.DamageEvent) { events <- ev })
	require.NoError(t, err)
	defer unsubscribe()

	sent, skipped, err := replay(context.Background(), capture, socket, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, skipped)

	for _, want := range []int{1, 99} {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev.HitGroup)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestReplayMissingInput(t *testing.T) {
	_, _, err := replay(context.Background(), filepath.Join(t.TempDir(), "none.jsonl"), "/tmp/unused.sock", 0, true)
	require.Error(t, err)
}
