package metrics_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/multidomain/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should count requests per route", func() {
			m.IncrementRequests("*.example.com")
			m.IncrementRequests("other.com")
			m.IncrementRequests("*.example.com")

			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Routes["*.example.com"].Requests).To(Equal(int64(2)))
			Expect(snap.Routes["other.com"].Requests).To(Equal(int64(1)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse("example.com", 100*time.Millisecond, 200)
			m.RecordResponse("example.com", 200*time.Millisecond, 200)

			route := m.Snapshot().Routes["example.com"]
			Expect(route.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(route.StatusCodes[200]).To(Equal(int64(2)))
		})

		It("should compute percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse("example.com", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot().Routes["example.com"]
			Expect(route.P50Response).To(Equal(51 * time.Millisecond))
			Expect(route.P95Response).To(Equal(96 * time.Millisecond))
			Expect(route.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should keep a bounded sample window", func() {
			for i := 0; i < 1500; i++ {
				m.RecordResponse("example.com", time.Second, 200)
			}
			m.RecordResponse("example.com", time.Second, 502)

			route := m.Snapshot().Routes["example.com"]
			Expect(route.AvgResponse).To(Equal(time.Second))
			Expect(route.StatusCodes[200]).To(Equal(int64(1500)))
			Expect(route.StatusCodes[502]).To(Equal(int64(1)))
		})
	})

	Describe("RecordNotFound", func() {
		It("should count unmatched hosts", func() {
			m.RecordNotFound("other.com")
			m.RecordNotFound("other.com")
			m.RecordNotFound("")

			snap := m.Snapshot()
			Expect(snap.NotFound).To(Equal(int64(3)))
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.NotFoundHosts).To(HaveKeyWithValue("other.com", int64(2)))
			Expect(snap.NotFoundHosts).To(HaveKeyWithValue("<none>", int64(1)))
		})

		It("should fold hosts past the limit together", func() {
			for i := 0; i < 1005; i++ {
				m.RecordNotFound(fmt.Sprintf("host-%d.com", i))
			}

			snap := m.Snapshot()
			Expect(snap.NotFound).To(Equal(int64(1005)))
			Expect(snap.NotFoundHosts).To(HaveLen(1001))
			Expect(snap.NotFoundHosts).To(HaveKeyWithValue("<other>", int64(5)))
		})
	})

	Describe("UpdateHealthStatus", func() {
		It("should track the latest backend status", func() {
			m.UpdateHealthStatus("http://localhost:8081", true)
			m.UpdateHealthStatus("http://localhost:8081", false)

			Expect(m.Snapshot().Backends).To(HaveKeyWithValue("http://localhost:8081", false))
		})
	})

	Describe("RecordReload", func() {
		It("should count reloads and remember the last outcome", func() {
			at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			m.RecordReload(true, at)
			m.RecordReload(false, at.Add(time.Minute))

			reloads := m.Snapshot().Reloads
			Expect(reloads.Total).To(Equal(int64(2)))
			Expect(reloads.Failed).To(Equal(int64(1)))
			Expect(reloads.LastFailed).To(BeTrue())
			Expect(reloads.Last).To(Equal(at.Add(time.Minute)))
		})

		It("should not report a failure before any reload", func() {
			Expect(m.Snapshot().Reloads.LastFailed).To(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("should not share status code maps", func() {
			m.RecordResponse("example.com", time.Millisecond, 200)
			snap := m.Snapshot()
			snap.Routes["example.com"].StatusCodes[200] = 99

			Expect(m.Snapshot().Routes["example.com"].StatusCodes[200]).To(Equal(int64(1)))
		})
	})
})
