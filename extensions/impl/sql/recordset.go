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
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"

	"github.com/pingcap/failpoint"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lf-edge/pushdown/internal/conf"
	"github.com/lf-edge/pushdown/metrics"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/timex"
	"github.com/lf-edge/pushdown/pkg/tracer"
)

// RecordSet is the statement of one split, ready to run.
type RecordSet struct {
	connector *SQLConnector
	query     string
	columns   []string
}

func (s *SQLConnector) GetRecordSet(split *connector.PushedDownQuerySplit) (*RecordSet, error) {
	if split == nil || split.ScanPipeline == nil {
		return nil, errorx.NewInvalidState("split has no scan pipeline")
	}
	if split.ConnectorID != s.id {
		return nil, fmt.Errorf("split %s belongs to connector %s", split.SplitID, split.ConnectorID)
	}
	query, err := s.dialect.Generate(split.ScanPipeline)
	failpoint.Inject("GenerateErr", func() {
		err = errors.New("GenerateErr")
	})
	if err != nil {
		return nil, err
	}
	cols, err := split.ScanPipeline.OutputColumns()
	if err != nil {
		return nil, err
	}
	return &RecordSet{connector: s, query: query, columns: cols}, nil
}

func (r *RecordSet) SQL() string {
	return r.query
}

func (r *RecordSet) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Execute runs the statement and returns the rows keyed by the output
// columns of the pipeline.
func (r *RecordSet) Execute(ctx context.Context) (result []map[string]any, err error) {
	s := r.connector
	ctx, span := tracer.GetTracer().Start(ctx, "execute split", trace.WithAttributes(
		attribute.String("connector", s.id),
		attribute.String("sql", r.query),
	))
	start := timex.GetNow()
	defer func() {
		metrics.ObserveConnectorQuery(s.id, start, len(result), err)
		span.SetAttributes(attribute.Int("rows", len(result)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	logger := conf.Log.WithField("connector", s.id)
	if s.needReconnect.Load() {
		if err := s.conn.Reconnect(ctx); err != nil {
			logger.Errorf("reconnect db error %v", err)
			return nil, errorx.NewIOErr(fmt.Sprintf("reconnect %s: %v", s.id, err))
		}
		SqlConnectorCounter.WithLabelValues(LblReconn, s.id).Inc()
		logger.Infof("reconnect sql success")
		s.needReconnect.Store(false)
	}
	db := s.conn.GetDB()
	if db == nil {
		if err := s.conn.Reconnect(ctx); err != nil {
			return nil, errorx.NewIOErr(fmt.Sprintf("connect %s: %v", s.id, err))
		}
		db = s.conn.GetDB()
	}
	logger.Debugf("Query the database with %s", r.query)
	SqlConnectorCounter.WithLabelValues(LblQuery, s.id).Inc()
	rows, err := db.QueryContext(ctx, r.query)
	failpoint.Inject("QueryErr", func() {
		if rows != nil {
			rows.Close()
		}
		err = errors.New("QueryErr")
	})
	if err != nil {
		logger.Errorf("query sql error %v", err)
		SqlConnectorCounter.WithLabelValues(LblException, s.id).Inc()
		if ctx.Err() == nil {
			s.needReconnect.Store(true)
		}
		return nil, errorx.NewIOErr(fmt.Sprintf("query %s: %v", r.query, err))
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) != len(r.columns) {
		return nil, errorx.NewInvalidState("query returned %d columns for %d pipeline output columns", len(cols), len(r.columns))
	}
	columnTypes, err := rows.ColumnTypes()
	failpoint.Inject("ColumnTypesErr", func() {
		err = errors.New("ColumnTypesErr")
	})
	if err != nil {
		logger.Errorf("query %v row ColumnTypes error %v", r.query, err)
		return nil, err
	}
	result = []map[string]any{}
	for rows.Next() {
		data := make(map[string]any, len(cols))
		columns := make([]any, len(cols))
		prepareValues(columns, columnTypes, cols)
		err := rows.Scan(columns...)
		failpoint.Inject("ScanErr", func() {
			err = errors.New("ScanErr")
		})
		if err != nil {
			logger.Errorf("Run sql scan(%s) error %v", r.query, err)
			return nil, err
		}
		scanIntoMap(data, columns, r.columns)
		SqlConnectorCounter.WithLabelValues(LblScan, s.id).Inc()
		result = append(result, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanIntoMap(mapValue map[string]any, values []any, columns []string) {
	for idx, column := range columns {
		if reflectValue := reflect.Indirect(reflect.Indirect(reflect.ValueOf(values[idx]))); reflectValue.IsValid() {
			mapValue[column] = reflectValue.Interface()
			if valuer, ok := mapValue[column].(driver.Valuer); ok {
				mapValue[column], _ = valuer.Value()
			} else if b, ok := mapValue[column].(sql.RawBytes); ok {
				mapValue[column] = string(b)
			}
		} else {
			mapValue[column] = nil
		}
	}
}

func prepareValues(values []any, columnTypes []*sql.ColumnType, columns []string) {
	if len(columnTypes) > 0 {
		for idx, columnType := range columnTypes {
			if columnType.ScanType() != nil {
				values[idx] = reflect.New(reflect.PointerTo(columnType.ScanType())).Interface()
			} else {
				values[idx] = new(any)
			}
		}
	} else {
		for idx := range columns {
			values[idx] = new(any)
		}
	}
}
