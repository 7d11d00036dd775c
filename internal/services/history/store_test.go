package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

func msg(text string) models.ChatMessage {
	return models.NewChatMessage(models.RoleUser, text, time.Now())
}

func TestStore_FIFOEviction(t *testing.T) {
	s := NewStore(3)
	for i := 1; i <= 5; i++ {
		s.Append("a", msg(fmt.Sprintf("m%d", i)))
		require.LessOrEqual(t, len(s.Get("a")), 3)
	}

	got := s.Get("a")
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[0].Text)
	assert.Equal(t, "m5", got[2].Text)
}

func TestStore_AppendBatchLargerThanCap(t *testing.T) {
	s := NewStore(2)
	s.Append("a", msg("1"), msg("2"), msg("3"))

	got := s.Get("a")
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Text)
}

func TestStore_Recent(t *testing.T) {
	s := NewStore(10)
	s.Append("a", msg("1"), msg("2"), msg("3"))

	recent := s.Recent("a", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "2", recent[0].Text)
	assert.Equal(t, "3", recent[1].Text)

	assert.Len(t, s.Recent("a", 99), 3)
	assert.Empty(t, s.Recent("a", 0))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore(5)
	s.Append("a", msg("1"))

	got := s.Get("a")
	got[0].Text = "changed"
	assert.Equal(t, "1", s.Get("a")[0].Text)
}

func TestStore_ClearAndDefaultSession(t *testing.T) {
	s := NewStore(5)
	s.Append("", msg("hello"))

	assert.Len(t, s.Get(DefaultSessionID), 1)
	assert.Equal(t, []string{DefaultSessionID}, s.Sessions())
	assert.True(t, s.Clear(""))
	assert.False(t, s.Clear(""))
	assert.Empty(t, s.Get(DefaultSessionID))
}

func TestStore_ConcurrentAppendsSameSession(t *testing.T) {
	const writers, perWriter = 20, 50
	s := NewStore(1000)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.WithSession(context.Background(), "shared", func(h interfaces.SessionHistory) {
					before := h.Len()
					h.Append(msg(fmt.Sprintf("%d-%d", w, i)))
					if h.Len() != before+1 {
						t.Errorf("append not serialised: %d -> %d", before, h.Len())
					}
				})
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, s.Get("shared"), writers*perWriter)
}

func TestStore_SessionsDoNotBlockEachOther(t *testing.T) {
	s := NewStore(5)
	held := make(chan struct{})
	release := make(chan struct{})

	go s.WithSession(context.Background(), "slow", func(h interfaces.SessionHistory) {
		close(held)
		<-release
	})
	<-held

	done := make(chan struct{})
	go func() {
		s.Append("fast", msg("x"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("append on another session blocked behind a held session lock")
	}
	close(release)
}

func TestStore_WithSessionHonoursContextWhileWaiting(t *testing.T) {
	s := NewStore(5)
	held := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go s.WithSession(context.Background(), "busy", func(h interfaces.SessionHistory) {
		close(held)
		<-release
	})
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ran := false
	start := time.Now()
	err := s.WithSession(ctx, "busy", func(h interfaces.SessionHistory) { ran = true })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStore_ClearDuringTurnKeepsSession(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", msg("old"))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- s.WithSession(context.Background(), "s1", func(h interfaces.SessionHistory) {
			close(held)
			<-release
			h.Append(msg("new"))
		})
	}()
	<-held

	assert.True(t, s.Clear("s1"))
	assert.Empty(t, s.Get("s1"))

	close(release)
	require.NoError(t, <-done)

	got := s.Get("s1")
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
	assert.Equal(t, []string{"s1"}, s.Sessions())
}
