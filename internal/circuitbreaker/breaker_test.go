package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/multidomain/internal/circuitbreaker"
)

var _ = Describe("CircuitBreaker", func() {
	var (
		cb  *circuitbreaker.CircuitBreaker
		now time.Time
	)

	advance := func(d time.Duration) { now = now.Add(d) }

	trip := func() {
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
	}

	BeforeEach(func() {
		now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		cb = circuitbreaker.NewCircuitBreaker(3, 30*time.Second)
		cb.SetClock(func() time.Time { return now })
	})

	Describe("NewCircuitBreaker", func() {
		It("should start closed", func() {
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Failures()).To(Equal(0))
		})

		It("should clamp a threshold below one", func() {
			b := circuitbreaker.NewCircuitBreaker(0, time.Second)
			b.RecordFailure()
			Expect(b.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Context("when CLOSED", func() {
		It("should allow requests", func() {
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should stay closed below the threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Failures()).To(Equal(2))
		})

		It("should open at the threshold", func() {
			trip()
		})
	})

	Context("when OPEN", func() {
		BeforeEach(trip)

		It("should reject requests before the reset timeout", func() {
			advance(10 * time.Second)
			Expect(cb.Allow()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should turn half-open after the reset timeout", func() {
			advance(30 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Context("when HALF-OPEN", func() {
		BeforeEach(func() {
			trip()
			advance(31 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should admit only one probe", func() {
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should admit another probe after a release", func() {
			cb.Release()
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})

		It("should close on a successful probe", func() {
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should reopen on a failed probe", func() {
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Allow()).To(BeFalse())
		})
	})

	Describe("RecordSuccess", func() {
		It("should reset the failure count", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Failures()).To(Equal(1))
		})
	})

	DescribeTable("State.String",
		func(s circuitbreaker.State, expected string) {
			Expect(s.String()).To(Equal(expected))
		},
		Entry("closed", circuitbreaker.StateClosed, "CLOSED"),
		Entry("open", circuitbreaker.StateOpen, "OPEN"),
		Entry("half-open", circuitbreaker.StateHalfOpen, "HALF-OPEN"),
		Entry("unknown", circuitbreaker.State(42), "UNKNOWN"),
	)
})
