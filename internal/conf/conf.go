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
	"errors"
	"path/filepath"

	"github.com/lf-edge/pushdown/internal/pkg/def"
)

const ConfFileName = "pushdown.yaml"

var (
	Config    *PushdownConf
	IsTesting bool
)

type SQLConf struct {
	MaxConnections int `json:"maxConnections" yaml:"maxConnections"`
}

// Validate resets invalid values to their defaults.
func (sc *SQLConf) Validate() error {
	var errs error
	if sc.MaxConnections < 0 {
		sc.MaxConnections = 0
		Log.Warnf("sql.maxConnections is negative, set to 0")
		errs = errors.Join(errs, errors.New("invalidMaxConnections:maxConnections must not be negative"))
	}
	return errs
}

type OpenTelemetryConf struct {
	ServiceName           string `json:"serviceName" yaml:"serviceName"`
	EnableRemoteCollector bool   `json:"enableRemoteCollector" yaml:"enableRemoteCollector"`
	RemoteEndpoint        string `json:"remoteEndpoint" yaml:"remoteEndpoint"`
}

type PushdownConf struct {
	Basic struct {
		Debug      bool `yaml:"debug"`
		ConsoleLog bool `yaml:"consoleLog"`
		FileLog    bool `yaml:"fileLog"`
		RotateTime int  `yaml:"rotateTime"`
		MaxAge     int  `yaml:"maxAge"`
	}
	Optimizer     *def.PlanOptimizeStrategy
	SQL           *SQLConf
	OpenTelemetry *OpenTelemetryConf
}

func defaultConf() *PushdownConf {
	c := &PushdownConf{
		Optimizer: def.GetDefaultPlanOptimizeStrategy(),
		SQL:       &SQLConf{},
	}
	c.OpenTelemetry = &OpenTelemetryConf{
		ServiceName:    "pushdown",
		RemoteEndpoint: "localhost:4318",
	}
	c.Basic.ConsoleLog = true
	c.Basic.RotateTime = 24
	c.Basic.MaxAge = 72
	return c
}

// InitConf loads etc/pushdown.yaml, applies the environment overrides and
// configures logging.
func InitConf() error {
	cpath, err := GetConfLoc()
	if err != nil {
		return err
	}
	c, err := LoadPushdownConf(filepath.Join(cpath, ConfFileName))
	if err != nil {
		return err
	}
	Config = c
	configureLogger(c)
	return nil
}

// LoadPushdownConf reads the configuration file. Invalid values are reset
// with a warning and do not fail the load.
func LoadPushdownConf(p string) (*PushdownConf, error) {
	c := defaultConf()
	if err := LoadConfigFromPath(p, c); err != nil {
		return nil, err
	}
	if c.Optimizer == nil {
		c.Optimizer = def.GetDefaultPlanOptimizeStrategy()
	}
	if c.SQL == nil {
		c.SQL = &SQLConf{}
	}
	if c.OpenTelemetry == nil {
		c.OpenTelemetry = defaultConf().OpenTelemetry
	}
	_ = ValidateOptimizeStrategy(c.Optimizer)
	_ = c.SQL.Validate()
	return c, nil
}

func ValidateOptimizeStrategy(s *def.PlanOptimizeStrategy) error {
	var errs error
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.DefaultMaxIterations
		Log.Warnf("optimizer.maxIterations must be positive, set to %d", def.DefaultMaxIterations)
		errs = errors.Join(errs, errors.New("invalidMaxIterations:maxIterations must be greater than 0"))
	}
	return errs
}

// GetOptimizeStrategy returns the loaded strategy or the default one when
// the configuration is not initialized.
func GetOptimizeStrategy() *def.PlanOptimizeStrategy {
	if Config == nil || Config.Optimizer == nil {
		return def.GetDefaultPlanOptimizeStrategy()
	}
	return Config.Optimizer
}

func init() {
	InitLogger()
}
