// internal/chaos/experiments.go
package chaos

import (
	"context"
	"time"

	"clubverse/internal/membership"
)

// ProbeRequest is the membership purchase used to measure availability.
func ProbeRequest() membership.Request {
	return membership.Request{
		Name:   "Chaos Probe",
		Email:  "chaos-probe@clubverse.invalid",
		Phone:  "+00 0000 000000",
		Type:   string(membership.TypeGold),
		Period: string(membership.PeriodWeekly),
	}
}

// purchaseSuccessRate issues probes purchases and returns the percentage
// that succeeded.
func purchaseSuccessRate(svc membership.Service, probes int) func(context.Context) (float64, error) {
	return func(ctx context.Context) (float64, error) {
		ok := 0
		for n := 0; n < probes; n++ {
			if _, err := svc.CreateMembership(ctx, ProbeRequest()); err == nil {
				ok++
			}
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		return float64(ok) / float64(probes) * 100, nil
	}
}

// StoreOutageExperiment fails every membership store call. Purchases must
// keep succeeding from memory.
func StoreOutageExperiment(svc membership.Service, injector *Injector, duration time.Duration) Experiment {
	return Experiment{
		Name:       "membership-store-outage",
		Hypothesis: "Membership purchases keep succeeding when the durable store is down",
		SteadyState: []Metric{
			{
				Name:      "purchase_success_rate",
				Query:     purchaseSuccessRate(svc, 5),
				Threshold: Threshold{Operator: ">=", Value: 100},
			},
		},
		Method: []Action{
			{
				Type:   "inject-failure",
				Target: "membership-store",
				Execute: func(context.Context) error {
					injector.Set(1, 0)
					return nil
				},
			},
		},
		Rollback: []Action{
			{
				Type:   "remove-failure",
				Target: "membership-store",
				Execute: func(context.Context) error {
					injector.Reset()
					return nil
				},
			},
		},
		Validation: []Assertion{
			{
				Metric:    "purchase_success_rate",
				Condition: func(v float64) bool { return v >= 100 },
				Message:   "every purchase should succeed during the outage",
			},
		},
		Duration:    duration,
		SampleEvery: duration / 5,
	}
}

// StoreLatencyExperiment slows the store down and expects purchases to
// still complete.
func StoreLatencyExperiment(svc membership.Service, injector *Injector, latency, duration time.Duration) Experiment {
	return Experiment{
		Name:       "membership-store-latency",
		Hypothesis: "Membership purchases complete when the store responds slowly",
		SteadyState: []Metric{
			{
				Name:      "purchase_success_rate",
				Query:     purchaseSuccessRate(svc, 1),
				Threshold: Threshold{Operator: ">=", Value: 100},
			},
		},
		Method: []Action{
			{
				Type:   "inject-latency",
				Target: "membership-store",
				Execute: func(context.Context) error {
					injector.Set(0, latency)
					return nil
				},
			},
		},
		Rollback: []Action{
			{
				Type:   "remove-latency",
				Target: "membership-store",
				Execute: func(context.Context) error {
					injector.Reset()
					return nil
				},
			},
		},
		Validation: []Assertion{
			{
				Metric:    "purchase_success_rate",
				Condition: func(v float64) bool { return v >= 95 },
				Message:   "purchase success rate should stay above 95% under latency",
			},
		},
		Duration:    duration,
		SampleEvery: duration / 5,
	}
}
