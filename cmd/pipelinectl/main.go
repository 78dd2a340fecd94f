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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"

	sqlconn "github.com/lf-edge/pushdown/extensions/impl/sql"
	"github.com/lf-edge/pushdown/extensions/impl/sql/sqlgen"
	"github.com/lf-edge/pushdown/internal/conf"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/tracer"
)

var (
	Version      = "unknown"
	LoadFileType = "relative"
)

var formatFlag = cli.StringFlag{
	Name:  "format, f",
	Usage: "split encoding, json or cbor",
	Value: string(connector.FormatJSON),
}

func readSplit(path string, format string) (*connector.PushedDownQuerySplit, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read split: %v", err)
	}
	return connector.DecodeSplit(b, connector.Format(strings.ToLower(format)))
}

func describeSplit(w io.Writer, split *connector.PushedDownQuerySplit) error {
	fmt.Fprintf(w, "connector: %s\nsplit: %s\n", split.ConnectorID, split.SplitID)
	for i, n := range split.ScanPipeline.Nodes() {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("\t", i), n)
	}
	b, err := json.MarshalIndent(split.ScanPipeline, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func renderSQL(split *connector.PushedDownQuerySplit, dialect string) (string, error) {
	d, err := sqlgen.GetDialect(dialect)
	if err != nil {
		return "", err
	}
	return d.Generate(split.ScanPipeline)
}

func runSplit(ctx context.Context, w io.Writer, split *connector.PushedDownQuerySplit, dburl string) error {
	s, err := sqlconn.NewSQLConnector(split.ConnectorID, map[string]any{"dburl": dburl})
	if err != nil {
		return err
	}
	defer s.Close()
	rs, err := s.GetRecordSet(split)
	if err != nil {
		return err
	}
	rows, err := rs.Execute(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// exitCode tells IO failures, broken invariants and rejected input apart.
func exitCode(err error) int {
	code, ok := errorx.GetErrorCode(err)
	if !ok {
		return 1
	}
	switch code {
	case errorx.IOErr:
		return 2
	case errorx.InvalidState:
		return 3
	case errorx.ValidationErr, errorx.NOT_FOUND:
		return 4
	default:
		return 1
	}
}

func main() {
	conf.LoadFileType = LoadFileType
	if err := conf.InitConf(); err != nil {
		conf.Log.Warnf("use default configuration: %v", err)
	}
	var otelConf *conf.OpenTelemetryConf
	if conf.Config != nil {
		otelConf = conf.Config.OpenTelemetry
	}
	shutdownTracer, err := tracer.InitTracer(context.Background(), otelConf)
	if err != nil {
		conf.Log.Warnf("tracing disabled: %v", err)
		shutdownTracer = func(context.Context) error { return nil }
	}
	app := cli.NewApp()
	app.Name = "pipelinectl"
	app.Usage = "inspect and run pushed down query splits"
	app.Version = Version

	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "decode $split_file [-f json|cbor]",
			ArgsUsage: "<split file, - for stdin>",
			Flags:     []cli.Flag{formatFlag},
			Action: func(c *cli.Context) error {
				split, err := readSplit(c.Args().First(), c.String("format"))
				if err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				if err := describeSplit(os.Stdout, split); err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				return nil
			},
		},
		{
			Name:      "sql",
			Usage:     "sql $split_file [-f json|cbor] [-d sqlite|mysql|postgres]",
			ArgsUsage: "<split file, - for stdin>",
			Flags: []cli.Flag{
				formatFlag,
				cli.StringFlag{
					Name:  "dialect, d",
					Usage: "sql dialect of the generated statement",
					Value: "sqlite",
				},
			},
			Action: func(c *cli.Context) error {
				split, err := readSplit(c.Args().First(), c.String("format"))
				if err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				stmt, err := renderSQL(split, c.String("dialect"))
				if err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				fmt.Println(stmt)
				return nil
			},
		},
		{
			Name:      "run",
			Usage:     "run $split_file --dburl $url [-f json|cbor]",
			ArgsUsage: "<split file, - for stdin>",
			Flags: []cli.Flag{
				formatFlag,
				cli.StringFlag{
					Name:  "dburl",
					Usage: "database url, e.g. sqlite:/tmp/test.db",
				},
			},
			Action: func(c *cli.Context) error {
				split, err := readSplit(c.Args().First(), c.String("format"))
				if err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				if err := runSplit(context.Background(), os.Stdout, split, c.String("dburl")); err != nil {
					return cli.NewExitError(err, exitCode(err))
				}
				return nil
			},
		},
	}

	err = app.Run(os.Args)
	if serr := shutdownTracer(context.Background()); serr != nil {
		conf.Log.Warnf("flush spans: %v", serr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
