package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskListOrder(t *testing.T) {
	clock := &fakeClock{now: 100}
	l := NewTaskList(clock)

	var order []string
	add := func(name string, wake uint32) {
		l.Schedule(&Task{Name: name, WakeTime: wake, Handler: func(t *Task) uint8 {
			order = append(order, t.Name)
			return SF_DONE
		}})
	}
	add("c", 130)
	add("a", 110)
	add("b", 120)
	add("b2", 120)

	wake, ok := l.NextWake()
	require.True(t, ok)
	require.Equal(t, uint32(110), wake)

	require.Zero(t, l.Dispatch())
	clock.now = 120
	require.Equal(t, 3, l.Dispatch())
	require.Equal(t, []string{"a", "b", "b2"}, order)

	clock.now = 500
	require.Equal(t, 1, l.Dispatch())
	_, ok = l.NextWake()
	require.False(t, ok)
}

func TestTaskListEvery(t *testing.T) {
	clock := &fakeClock{now: 0}
	l := NewTaskList(clock)

	runs := 0
	task := l.Every("tick", 5, func() { runs++ })
	require.Equal(t, uint32(5), task.WakeTime)

	for now := uint32(0); now <= 20; now++ {
		clock.now = now
		l.Dispatch()
	}
	require.Equal(t, 4, runs)
	require.Equal(t, uint32(25), task.WakeTime)

	// Far behind: missed runs are skipped
	clock.now = 1000
	require.Equal(t, 1, l.Dispatch())
	require.Equal(t, uint32(1005), task.WakeTime)
}

func TestTaskListWrap(t *testing.T) {
	clock := &fakeClock{now: 0xFFFFFFF0}
	l := NewTaskList(clock)

	var order []string
	for _, tc := range []struct {
		name string
		wake uint32
	}{{"late", 0x10}, {"early", 0xFFFFFFF8}} {
		l.Schedule(&Task{Name: tc.name, WakeTime: tc.wake, Handler: func(t *Task) uint8 {
			order = append(order, t.Name)
			return SF_DONE
		}})
	}

	clock.now = 0x20
	require.Equal(t, 2, l.Dispatch())
	require.Equal(t, []string{"early", "late"}, order)
}
