package synthesis

import "time"

// A Mixer holds the active waves and decides what, if anything, must be written to the actuator
// on each tick. Concurrent waves combine by maximum, never by sum.
type Mixer struct {
	minIntensity uint8
	waves        []WaveEvent
	last         uint8
}

// NewMixer returns an empty mixer that never writes nonzero values below minIntensity.
func NewMixer(minIntensity uint8) *Mixer {
	return &Mixer{minIntensity: minIntensity}
}

// Add makes a wave active.
func (m *Mixer) Add(w WaveEvent) {
	m.waves = append(m.waves, w)
}

// Merged evicts the waves expired at now and returns the maximum intensity of the rest, 0 if
// none remain.
func (m *Mixer) Merged(now time.Time) uint8 {
	var merged uint8
	alive := m.waves[:0]
	for _, w := range m.waves {
		intensity, ok := w.IntensityAt(now)
		if !ok {
			continue
		}
		alive = append(alive, w)
		if intensity > merged {
			merged = intensity
		}
	}
	// release evicted waves for the collector
	for i := len(alive); i < len(m.waves); i++ {
		m.waves[i] = WaveEvent{}
	}
	m.waves = alive
	return merged
}

// Tick advances the mixer to now and returns the intensity to write, if a write is needed. A
// write is needed when the merged intensity is at least the minimum and differs from the last
// committed value, or when it drops to 0 while the last committed value was not 0.
//
// The caller reports a successful write with Committed. Until then the same value is returned by
// the following ticks, so failed writes are retried.
func (m *Mixer) Tick(now time.Time) (uint8, bool) {
	merged := m.Merged(now)
	switch {
	case merged >= m.minIntensity && merged != m.last && merged != 0:
		return merged, true
	case merged == 0 && m.last != 0:
		return 0, true
	default:
		return 0, false
	}
}

// Committed records that value was written to the actuator.
func (m *Mixer) Committed(value uint8) {
	m.last = value
}

// LastWritten returns the last committed value.
func (m *Mixer) LastWritten() uint8 {
	return m.last
}

// Active returns the number of waves not yet evicted.
func (m *Mixer) Active() int {
	return len(m.waves)
}
