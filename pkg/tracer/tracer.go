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

package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lf-edge/pushdown/internal/conf"
)

const instrumentationName = "github.com/lf-edge/pushdown"

// GetTracer returns a tracer of the global provider. Spans are not recorded
// until InitTracer installs an exporting provider.
func GetTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

// InitTracer installs a provider exporting to the configured OTLP collector.
// The returned function flushes and stops it.
func InitTracer(ctx context.Context, c *conf.OpenTelemetryConf) (func(context.Context) error, error) {
	if c == nil || !c.EnableRemoteCollector {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(c.RemoteEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(c.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	conf.Log.Infof("set tracer success, serviceName:%v, endpoint:%v", c.ServiceName, c.RemoteEndpoint)
	return tp.Shutdown, nil
}
