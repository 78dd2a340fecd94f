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

package sql

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lf-edge/pushdown/metrics"
)

const (
	LblQuery     = "query"
	LblScan      = "scan"
	LblReconn    = "reconn"
	LblException = "exception"
	LblTables    = "tables"
)

var (
	SqlConnectorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pushdown",
		Subsystem: "sql_connector",
		Name:      "counter",
		Help:      "counter of SQL connector IO",
	}, []string{metrics.LblType, metrics.LblConnectorType})

	SqlConnectorGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pushdown",
		Subsystem: "sql_connector",
		Name:      "gauge",
		Help:      "Gauge of SQL connector state",
	}, []string{metrics.LblType, metrics.LblConnectorType})
)

func init() {
	prometheus.MustRegister(SqlConnectorCounter)
	prometheus.MustRegister(SqlConnectorGauge)
}
