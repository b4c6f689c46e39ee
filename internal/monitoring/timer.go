package monitoring

import (
	"time"

	"github.com/candlr-app/candlr/internal/timeutil"
)

// StageTimer logs elapsed time per pipeline stage through Logf. Each Mark
// reports the interval since the previous one; Total reports the time since
// the timer was created.
type StageTimer struct {
	prefix string
	start  time.Time
	last   time.Time
	clock  timeutil.Clock
}

// NewStageTimer starts a timer whose log lines are tagged with prefix.
func NewStageTimer(prefix string) *StageTimer {
	return newStageTimer(prefix, timeutil.RealClock{})
}

func newStageTimer(prefix string, clock timeutil.Clock) *StageTimer {
	t := clock.Now()
	return &StageTimer{prefix: prefix, start: t, last: t, clock: clock}
}

// Mark logs the duration of the stage that just finished and resets the
// interval clock.
func (st *StageTimer) Mark(stage string) {
	t := st.clock.Now()
	Logf("[%s] %s: %dms", st.prefix, stage, t.Sub(st.last).Milliseconds())
	st.last = t
}

// Total logs the time elapsed since the timer started.
func (st *StageTimer) Total() {
	Logf("[%s] total: %dms", st.prefix, st.clock.Now().Sub(st.start).Milliseconds())
}
