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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pingcap/failpoint"

	"github.com/lf-edge/pushdown/extensions/impl/sql/client"
	_ "github.com/lf-edge/pushdown/extensions/impl/sql/driver"
	"github.com/lf-edge/pushdown/extensions/impl/sql/sqlgen"
	"github.com/lf-edge/pushdown/internal/conf"
	"github.com/lf-edge/pushdown/pkg/cast"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
	"github.com/lf-edge/pushdown/pkg/validate"
)

// SessionPushdownEnabled switches negotiation off for one query. Scans are
// still executed.
const SessionPushdownEnabled = "sql_pushdown_enabled"

type SQLConf struct {
	DBUrl string `json:"dburl"`
	URL   string `json:"url,omitempty"`
}

func (sc *SQLConf) resolveDBURL() error {
	if len(sc.DBUrl) < 1 && len(sc.URL) < 1 {
		return fmt.Errorf("dburl should be defined")
	}
	if len(sc.DBUrl) < 1 {
		sc.DBUrl = sc.URL
	}
	sc.URL = ""
	return nil
}

// SQLConnector is a connector over a database/sql source. It negotiates
// pushdown for the tables registered with AddTable and executes the accepted
// pipelines as generated SQL.
type SQLConnector struct {
	id            string
	conf          *SQLConf
	conn          *client.SQLConnection
	dialect       *sqlgen.Dialect
	needReconnect atomic.Bool

	lock   sync.RWMutex
	tables map[string]*pipeline.TableNode
}

var _ connector.Metadata = (*SQLConnector)(nil)

func NewSQLConnector(id string, props map[string]any) (*SQLConnector, error) {
	if err := validate.ValidateID(id); err != nil {
		return nil, err
	}
	cfg := &SQLConf{}
	err := cast.MapToStruct(props, cfg)
	failpoint.Inject("MapToStructErr", func() {
		err = errors.New("MapToStruct")
	})
	if err != nil {
		return nil, fmt.Errorf("read properties %v fail with error: %v", props, err)
	}
	if err := cfg.resolveDBURL(); err != nil {
		return nil, err
	}
	sqlDriver, err := client.ParseDriver(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("dburl.Parse %s fail with error: %v", cfg.DBUrl, err)
	}
	dialect, err := sqlgen.GetDialect(sqlDriver)
	if err != nil {
		return nil, err
	}
	conn, err := client.NewSQLConnection(id, cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	return &SQLConnector{
		id:      id,
		conf:    cfg,
		conn:    conn,
		dialect: dialect,
		tables:  make(map[string]*pipeline.TableNode),
	}, nil
}

func (s *SQLConnector) ID() string {
	return s.id
}

func (s *SQLConnector) Dialect() *sqlgen.Dialect {
	return s.dialect
}

func (s *SQLConnector) DB() *client.SQLConnection {
	return s.conn
}

func (s *SQLConnector) Connect() error {
	conf.Log.Infof("Connecting to sql server of connector %s", s.id)
	return s.conn.Dial()
}

func (s *SQLConnector) Close() error {
	conf.Log.Infof("Closing sql connector %s", s.id)
	return s.conn.Close()
}

func tableKey(schemaName, tableName string) string {
	if schemaName == "" {
		return tableName
	}
	return schemaName + "." + tableName
}

// AddTable registers a table the connector can scan. Columns are listed in
// the order the base scan returns them.
func (s *SQLConnector) AddTable(schemaName, tableName string, columns []string, rowType []types.Type) error {
	tn, err := pipeline.NewTableNode(schemaName, tableName, columns, rowType)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tables[tableKey(schemaName, tableName)] = tn
	SqlConnectorGauge.WithLabelValues(LblTables, s.id).Set(float64(len(s.tables)))
	return nil
}

func (s *SQLConnector) table(t connector.TableHandle) (*pipeline.TableNode, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	tn, ok := s.tables[tableKey(t.SchemaName, t.TableName)]
	return tn, ok
}

// TableHandle returns the handle of a registered table.
func (s *SQLConnector) TableHandle(schemaName, tableName string) (connector.TableHandle, error) {
	t := connector.TableHandle{ConnectorID: s.id, SchemaName: schemaName, TableName: tableName}
	if _, ok := s.table(t); !ok {
		return connector.TableHandle{}, fmt.Errorf("table %s: %w", t, errorx.NotFoundErr)
	}
	return t, nil
}

// ColumnHandles returns one handle per column of the base table scan.
func (s *SQLConnector) ColumnHandles(t connector.TableHandle) ([]*ColumnHandle, error) {
	tn, ok := s.table(t)
	if !ok {
		return nil, fmt.Errorf("table %s: %w", t, errorx.NotFoundErr)
	}
	cols, rowType := tn.OutputColumns(), tn.RowType()
	r := make([]*ColumnHandle, 0, len(cols))
	for i, c := range cols {
		r = append(r, &ColumnHandle{Column: c, Type: rowType[i]})
	}
	return r, nil
}

func (s *SQLConnector) seed(t connector.TableHandle) (*pipeline.TableScanPipeline, bool) {
	tn, ok := s.table(t)
	if !ok {
		return nil, false
	}
	p, err := pipeline.Seed(tn, columnHandles(tn.OutputColumns(), tn.RowType()))
	if err != nil {
		return nil, false
	}
	return p, true
}
