package coordinator

import "time"

// Status is a JSON-serializable snapshot of the coordinator suitable for
// the management /status endpoint and tooling.
type Status struct {
    // Zone is the informational zone label from Options.
    Zone string `json:"zone,omitempty"`
    // Active reports the cached answer; false until the first sample.
    Active bool `json:"active"`
    // Sampled is false until the first successful sample.
    Sampled bool `json:"sampled"`
    // ActiveZone names the zone this coordinator considers active: its own
    // zone when active, empty when passive or unsampled.
    ActiveZone string `json:"activeZone,omitempty"`
    // UpdatedAt is the timestamp of the most recent sample, if any.
    UpdatedAt *time.Time `json:"updatedAt,omitempty"`
    // Monitoring reports whether the periodic sampler is scheduled.
    Monitoring bool `json:"monitoring"`
    // PollingIntervalSeconds is the sampling cadence.
    PollingIntervalSeconds float64 `json:"pollingIntervalSeconds"`
}

// Status returns a snapshot of the cached state; the cached fields are read
// lock-free, the monitoring flag under the scheduler mutex. It never
// triggers sampling; pair it with an observation when a seeded view is
// required.
func (c *Coordinator) Status() Status {
    st := Status{
        Zone:                   c.opts.Zone,
        Monitoring:             c.Monitoring(),
        PollingIntervalSeconds: c.opts.PollingInterval.Seconds(),
    }
    s := zoneState(c.state.Load())
    if s != stateUnsampled {
        st.Sampled = true
        st.Active = s == stateActive
        if ts, ok := c.UpdatedAt(); ok {
            st.UpdatedAt = &ts
        }
        if st.Active {
            st.ActiveZone = c.opts.Zone
        }
    }
    return st
}
