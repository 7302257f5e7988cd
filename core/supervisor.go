package core

// PeriodCounter is the progress signal of the servo scheduler
type PeriodCounter interface {
	Periods() uint32
}

// Actuator is force-disabled when the scheduler stalls
type Actuator interface {
	ForceDisable()
}

// SyncSupervisor detects a servo timer that stopped producing periods.
// A stall is fatal: ErrorSync is set, the servo driver module disabled and
// the outputs force-disabled. There is no recovery short of a reset.
type SyncSupervisor struct {
	periods  PeriodCounter
	actuator Actuator
	mon      *SystemMonitor
	clock    Clock

	// StallMS is the longest allowed time without a new period
	StallMS uint32

	last     uint32
	lastSeen uint32
	armed    bool
	tripped  bool
}

// DefaultStallMS covers several periods at the slowest supported rate
const DefaultStallMS = 100

// NewSyncSupervisor creates a supervisor. Check must be called
// periodically from the main loop once the scheduler is enabled.
func NewSyncSupervisor(periods PeriodCounter, actuator Actuator, mon *SystemMonitor, clock Clock) *SyncSupervisor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SyncSupervisor{
		periods:  periods,
		actuator: actuator,
		mon:      mon,
		clock:    clock,
		StallMS:  DefaultStallMS,
	}
}

// Check samples the period counter and reports whether the scheduler is
// healthy
func (s *SyncSupervisor) Check() bool {
	if s.tripped {
		return false
	}

	now := s.clock.Millis()
	count := s.periods.Periods()
	if !s.armed || count != s.last {
		s.armed = true
		s.last = count
		s.lastSeen = now
		return true
	}
	if elapsed(now, s.lastSeen) <= s.StallMS {
		return true
	}

	s.tripped = true
	s.mon.SetError(ErrorSync)
	s.mon.DisableModule(ModuleServoDriver)
	s.actuator.ForceDisable()
	RecordTiming(EvtSyncLost, 0, GetTime(), count, elapsed(now, s.lastSeen))
	DebugAsync("servo periods stalled")
	return false
}

// Tripped reports whether a stall was detected
func (s *SyncSupervisor) Tripped() bool {
	return s.tripped
}
