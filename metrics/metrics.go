// Copyright 2024 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lf-edge/pushdown/pkg/timex"
)

const (
	LblType          = "type"
	LblStatusType    = "status"
	LblRuleType      = "rule"
	LblResultType    = "result"
	LblConnectorType = "connector"

	LblAccepted       = "accepted"
	LblRejected       = "rejected"
	LblUntranslatable = "untranslatable"
	LblException      = "err"
	LblSuccess        = "success"
)

func GetStatusValue(err error) string {
	if err == nil {
		return LblSuccess
	}
	return LblException
}

var (
	RuleOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "optimizer",
		Name:      "rule_outcome",
		Help:      "counter of pushdown rule outcomes",
	}, []string{LblRuleType, LblResultType})

	NegotiationHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pushdown",
		Subsystem: "connector",
		Name:      "negotiation_duration",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 20), // 10us ~ 5s
		Help:      "hist of pushdown negotiation in microseconds",
	}, []string{LblType, LblStatusType})

	OptimizePassCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "optimizer",
		Name:      "passes",
		Help:      "counter of optimizer passes over a plan",
	}, []string{LblStatusType})
)

func init() {
	prometheus.MustRegister(RuleOutcomeCounter)
	prometheus.MustRegister(NegotiationHist)
	prometheus.MustRegister(OptimizePassCounter)
	RegisterConnectorMetrics()
}

func IncRuleOutcome(rule, result string) {
	RuleOutcomeCounter.WithLabelValues(rule, result).Inc()
}

func ObserveNegotiation(nodeType string, start time.Time, err error) {
	NegotiationHist.WithLabelValues(nodeType, GetStatusValue(err)).Observe(float64(timex.Since(start).Microseconds()))
}
