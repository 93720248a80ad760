package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	uploadBatches     uint64
	uploadRowsOK      uint64
	uploadRowsFailed  uint64
	payslipsGenerated uint64
	emailsSent        uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordUpload adds one finished payroll batch to the counters.
func (c *Collector) RecordUpload(successful, failed, payslips, emails int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.uploadBatches, 1)
	atomic.AddUint64(&c.uploadRowsOK, uint64(max(successful, 0)))
	atomic.AddUint64(&c.uploadRowsFailed, uint64(max(failed, 0)))
	atomic.AddUint64(&c.payslipsGenerated, uint64(max(payslips, 0)))
	atomic.AddUint64(&c.emailsSent, uint64(max(emails, 0)))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal": atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"payroll": map[string]uint64{
			"uploadBatchesTotal":     atomic.LoadUint64(&c.uploadBatches),
			"rowsSuccessfulTotal":    atomic.LoadUint64(&c.uploadRowsOK),
			"rowsFailedTotal":        atomic.LoadUint64(&c.uploadRowsFailed),
			"payslipsGeneratedTotal": atomic.LoadUint64(&c.payslipsGenerated),
			"emailsSentTotal":        atomic.LoadUint64(&c.emailsSent),
		},
	}
}
