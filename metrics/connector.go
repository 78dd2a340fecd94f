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

var (
	ConnectorQueryHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pushdown",
		Subsystem: "connector_query",
		Name:      "duration",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 20), // 10us ~ 5s
		Help:      "hist of pushed down query execution in microseconds",
	}, []string{LblConnectorType, LblStatusType})

	ConnectorQueryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "connector_query",
		Name:      "counter",
		Help:      "counter of pushed down query executions",
	}, []string{LblConnectorType, LblStatusType})

	ConnectorRowsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "connector_query",
		Name:      "rows",
		Help:      "counter of rows returned by pushed down queries",
	}, []string{LblConnectorType})

	ConnectorNegotiationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "connector",
		Name:      "negotiation",
		Help:      "counter of connector side negotiation decisions",
	}, []string{LblConnectorType, LblType, LblResultType})
)

func RegisterConnectorMetrics() {
	prometheus.MustRegister(ConnectorQueryHist)
	prometheus.MustRegister(ConnectorQueryCounter)
	prometheus.MustRegister(ConnectorRowsCounter)
	prometheus.MustRegister(ConnectorNegotiationCounter)
}

func ObserveConnectorQuery(connector string, start time.Time, rows int, err error) {
	status := GetStatusValue(err)
	ConnectorQueryHist.WithLabelValues(connector, status).Observe(float64(timex.Since(start).Microseconds()))
	ConnectorQueryCounter.WithLabelValues(connector, status).Inc()
	if err == nil {
		ConnectorRowsCounter.WithLabelValues(connector).Add(float64(rows))
	}
}
