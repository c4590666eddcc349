package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReplacesSameSlot(t *testing.T) {
	s := New(time.UTC)

	require.NoError(t, s.Daily("verb_of_day_1", "09:00", func() {}))
	require.NoError(t, s.Daily("verb_of_day_1", "09:30", func() {}))
	require.NoError(t, s.Daily("quiz1_1", "10:00", func() {}))

	assert.Equal(t, []string{"quiz1_1", "verb_of_day_1"}, s.Slots())
}

func TestDailyRejectsBadTime(t *testing.T) {
	s := New(time.UTC)
	assert.Error(t, s.Daily("verb_of_day_1", "9 o'clock", func() {}))
}

func TestOnceReplacesPendingTrigger(t *testing.T) {
	s := New(time.UTC)
	s.Start()
	defer s.Stop()

	var first, second int32
	require.NoError(t, s.Once("test_verb_1", time.Now().Add(time.Hour), func() { atomic.AddInt32(&first, 1) }))
	require.NoError(t, s.Once("test_verb_1", time.Now().Add(200*time.Millisecond), func() { atomic.AddInt32(&second, 1) }))
	assert.Equal(t, []string{"test_verb_1"}, s.Slots())

	require.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
}
