package obs

import (
	"time"
)

// Snapshot summarises the unified API counters for the super_admin view and
// /system/metrics.
func (m *Metrics) Snapshot() map[string]any {
	out := map[string]any{
		"requests_total":   0.0,
		"requests_failed":  0.0,
		"requests_by_role": map[string]float64{},
		"government_syncs": map[string]float64{},
		"uptime_seconds":   time.Since(m.started).Seconds(),
	}
	families, err := m.registry.Gather()
	if err != nil {
		return out
	}

	byRole := map[string]float64{}
	syncs := map[string]float64{}
	var total, failed float64
	for _, mf := range families {
		switch mf.GetName() {
		case "unifiedapi_requests_total":
			for _, metric := range mf.GetMetric() {
				v := metric.GetCounter().GetValue()
				total += v
				for _, lp := range metric.GetLabel() {
					switch lp.GetName() {
					case "role":
						byRole[lp.GetValue()] += v
					case "success":
						if lp.GetValue() == "false" {
							failed += v
						}
					}
				}
			}
		case "government_sync_total":
			for _, metric := range mf.GetMetric() {
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "adapter" {
						syncs[lp.GetValue()] += metric.GetCounter().GetValue()
					}
				}
			}
		}
	}
	out["requests_total"] = total
	out["requests_failed"] = failed
	out["requests_by_role"] = byRole
	out["government_syncs"] = syncs
	return out
}
