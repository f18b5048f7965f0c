package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandrevcalmon/authcore/internal/provider"
)

func TestCleanerRunPurgesArtifacts(t *testing.T) {
	client := &fakeClient{session: liveSession("user-1", "user@example.com")}
	store := newMemStorage()

	for _, key := range artifactKeys {
		require.NoError(t, store.Set(key, []byte("x"), time.Minute))
	}

	// unrelated keys survive
	require.NoError(t, store.Set("app.theme", []byte("dark"), time.Minute))

	c := NewCleaner(client, store, nil)
	c.Run(context.Background())

	for _, key := range artifactKeys {
		val, err := store.Get(key)
		require.NoError(t, err)
		assert.Empty(t, val, "artifact %q must be deleted", key)
	}

	val, err := store.Get("app.theme")
	require.NoError(t, err)
	assert.Equal(t, []byte("dark"), val)

	assert.Equal(t, 1, client.clearCalls)

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCleanerEmergencyResetsEverything(t *testing.T) {
	client := &fakeClient{session: liveSession("user-1", "user@example.com")}
	store := newMemStorage()
	require.NoError(t, store.Set("app.theme", []byte("dark"), time.Minute))

	c := NewCleaner(client, store, nil)
	c.Emergency(context.Background())

	val, err := store.Get("app.theme")
	require.NoError(t, err)
	assert.Empty(t, val, "emergency cleanup wipes the whole store")
	assert.Equal(t, 1, client.clearCalls)
}

func TestMonitorRefreshesNearExpirySession(t *testing.T) {
	client := &fakeClient{session: sessionExpiringIn(200 * time.Second)}
	client.refreshFunc = func() (*provider.Session, error) {
		return liveSession("user-1", "user@example.com"), nil
	}

	cleaner := NewCleaner(client, newMemStorage(), nil)
	m := NewMonitor(NewValidator(client, cleaner), NewRefresher(client, cleaner), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		_ = m.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()

		return client.refreshCalls >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	client := &fakeClient{}
	cleaner := NewCleaner(client, newMemStorage(), nil)
	m := NewMonitor(NewValidator(client, cleaner), NewRefresher(client, cleaner), time.Minute)

	done := make(chan struct{})

	go func() {
		_ = m.Start(context.Background())
		close(done)
	}()

	// give the loop a moment to start, then stop twice
	time.Sleep(10 * time.Millisecond)
	m.Stop()
	m.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
