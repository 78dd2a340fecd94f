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

package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-edge/pushdown/internal/pkg/def"
)

func TestLoadConfigEnvOverride(t *testing.T) {
	yml := []byte(`
basic:
  debug: false
  consoleLog: true
optimizer:
  pushdownFilterIntoScan: true
  pushdownProjectIntoScan: true
  maxIterations: 5
sql:
  maxConnections: 4
openTelemetry:
  serviceName: planner
  enableRemoteCollector: false
`)
	env := []string{
		"PUSHDOWN__OPTIMIZER__PUSHDOWNFILTERINTOSCAN=false",
		"PUSHDOWN__BASIC__DEBUG=true",
		"PUSHDOWN__SQL__MAXCONNECTIONS=8",
		"PUSHDOWN__OPENTELEMETRY__ENABLEREMOTECOLLECTOR=true",
		"OTHER__BASIC__FILELOG=true",
	}
	c := defaultConf()
	require.NoError(t, loadConfig(yml, "PUSHDOWN", env, c))
	assert.True(t, c.Basic.Debug)
	assert.True(t, c.Basic.ConsoleLog)
	assert.False(t, c.Basic.FileLog)
	assert.Equal(t, 24, c.Basic.RotateTime)
	assert.Equal(t, &def.PlanOptimizeStrategy{PushdownFilterIntoScan: false, PushdownProjectIntoScan: true, MaxIterations: 5}, c.Optimizer)
	assert.Equal(t, 8, c.SQL.MaxConnections)
	assert.Equal(t, &OpenTelemetryConf{ServiceName: "planner", EnableRemoteCollector: true, RemoteEndpoint: "localhost:4318"}, c.OpenTelemetry)
}

func TestLoadConfigErrors(t *testing.T) {
	c := defaultConf()
	err := loadConfig([]byte("basic: [1"), "PUSHDOWN", nil, c)
	assert.Error(t, err)

	err = loadConfig([]byte("basic:\n  debug: true\n"), "PUSHDOWN", []string{"PUSHDOWN__BASIC__DEBUG__X=1"}, c)
	assert.EqualError(t, err, "apply PUSHDOWN__BASIC__DEBUG__X: debug is not a section")
}

func TestLoadPushdownConf(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ConfFileName)
	require.NoError(t, os.WriteFile(p, []byte(`
optimizer:
  pushdownProjectIntoScan: false
  maxIterations: -1
sql:
  maxConnections: -3
`), 0o644))
	c, err := LoadPushdownConf(p)
	require.NoError(t, err)
	assert.True(t, c.Optimizer.PushdownFilterIntoScan)
	assert.False(t, c.Optimizer.PushdownProjectIntoScan)
	assert.Equal(t, def.DefaultMaxIterations, c.Optimizer.MaxIterations)
	assert.Equal(t, 0, c.SQL.MaxConnections)
	assert.Equal(t, "pushdown", c.OpenTelemetry.ServiceName)

	_, err = LoadPushdownConf(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateOptimizeStrategy(t *testing.T) {
	s := &def.PlanOptimizeStrategy{MaxIterations: 0}
	err := ValidateOptimizeStrategy(s)
	assert.EqualError(t, err, "invalidMaxIterations:maxIterations must be greater than 0")
	assert.Equal(t, def.DefaultMaxIterations, s.MaxIterations)
	assert.NoError(t, ValidateOptimizeStrategy(&def.PlanOptimizeStrategy{MaxIterations: 1}))
}

func TestGetValueType(t *testing.T) {
	assert.Equal(t, int64(3), getValueType(" 3 "))
	assert.Equal(t, true, getValueType("true"))
	assert.Equal(t, 1.5, getValueType("1.5"))
	assert.Equal(t, "abc", getValueType("abc"))
	assert.Equal(t, []any{int64(1), "b", false}, getValueType("[1,b,false]"))
}

func TestPrintable(t *testing.T) {
	m := map[string]any{
		"url": "mysql://db",
		"auth": map[string]any{
			"user":     "root",
			"password": "secret",
		},
	}
	assert.Equal(t, map[string]any{
		"url": "mysql://db",
		"auth": map[string]any{
			"user":     "root",
			"password": "***",
		},
	}, Printable(m))
}

func TestGetOptimizeStrategy(t *testing.T) {
	old := Config
	defer func() { Config = old }()
	Config = nil
	assert.Equal(t, def.GetDefaultPlanOptimizeStrategy(), GetOptimizeStrategy())
	Config = &PushdownConf{Optimizer: &def.PlanOptimizeStrategy{MaxIterations: 2}}
	assert.Equal(t, 2, GetOptimizeStrategy().MaxIterations)
}

func TestIsTesting(t *testing.T) {
	assert.True(t, IsTesting)
}
