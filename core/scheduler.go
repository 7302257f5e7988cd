package core

// Task is a foreground job of the main loop, woken in WakeTime order
type Task struct {
	Name     string
	WakeTime uint32 // Millis() at which the task is due
	Handler  func(*Task) uint8
	Next     *Task
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// TaskList is the main-loop schedule. Tasks may be added from ISRs; the
// handlers themselves always run with interrupts enabled.
type TaskList struct {
	head  *Task
	clock Clock
}

// NewTaskList creates an empty schedule
func NewTaskList(clock Clock) *TaskList {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TaskList{clock: clock}
}

// Schedule adds a task to the schedule
func (l *TaskList) Schedule(t *Task) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	l.insert(t)
}

// Every schedules fn every periodMS, starting one period from now. A task
// that falls more than a period behind skips the missed runs.
func (l *TaskList) Every(name string, periodMS uint32, fn func()) *Task {
	t := &Task{
		Name:     name,
		WakeTime: l.clock.Millis() + periodMS,
		Handler: func(t *Task) uint8 {
			fn()
			now := l.clock.Millis()
			t.WakeTime += periodMS
			if before(t.WakeTime, now) {
				t.WakeTime = now + periodMS
			}
			return SF_RESCHEDULE
		},
	}
	l.Schedule(t)
	return t
}

// insert inserts a task in sorted order by WakeTime
func (l *TaskList) insert(t *Task) {
	if l.head == nil || before(t.WakeTime, l.head.WakeTime) {
		t.Next = l.head
		l.head = t
		return
	}

	current := l.head
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// pop removes the first task if it is due
func (l *TaskList) pop(now uint32) *Task {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	t := l.head
	if t == nil || before(now, t.WakeTime) {
		return nil
	}
	l.head = t.Next
	t.Next = nil
	return t
}

// Dispatch runs every due task once and returns how many ran
func (l *TaskList) Dispatch() int {
	now := l.clock.Millis()

	// Tasks rescheduled for now or earlier wait for the next call
	var again []*Task
	ran := 0
	for t := l.pop(now); t != nil; t = l.pop(now) {
		ran++
		if t.Handler(t) == SF_RESCHEDULE {
			again = append(again, t)
		}
	}
	for _, t := range again {
		l.Schedule(t)
	}
	return ran
}

// NextWake returns the wake time of the first task
func (l *TaskList) NextWake() (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if l.head == nil {
		return 0, false
	}
	return l.head.WakeTime, true
}

// before is the wrap-safe a < b on millisecond stamps
func before(a, b uint32) bool {
	return int32(a-b) < 0
}
