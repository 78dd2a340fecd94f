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

package connector

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/lf-edge/pushdown/pkg/pipeline"
)

// PushedDownQuerySplit is the unit of work shipped to a worker. It carries
// the whole negotiated pipeline so the worker can run it without the plan.
type PushedDownQuerySplit struct {
	ConnectorID  string
	SplitID      uuid.UUID
	ScanPipeline *pipeline.TableScanPipeline
}

func NewPushedDownQuerySplit(connectorID string, p *pipeline.TableScanPipeline) *PushedDownQuerySplit {
	return &PushedDownQuerySplit{
		ConnectorID:  connectorID,
		SplitID:      uuid.New(),
		ScanPipeline: p,
	}
}

func (s *PushedDownQuerySplit) RemotelyAccessible() bool {
	return true
}

func (s *PushedDownQuerySplit) Addresses() []string {
	return nil
}

func (s *PushedDownQuerySplit) Info() map[string]any {
	return map[string]any{
		"connectorId":  s.ConnectorID,
		"splitId":      s.SplitID.String(),
		"scanPipeline": s.ScanPipeline.String(),
	}
}

type splitJSON struct {
	ConnectorID  string                      `json:"connectorId"`
	SplitID      uuid.UUID                   `json:"splitId"`
	ScanPipeline *pipeline.TableScanPipeline `json:"scanPipeline"`
}

func (s *PushedDownQuerySplit) MarshalJSON() ([]byte, error) {
	return json.Marshal(splitJSON{s.ConnectorID, s.SplitID, s.ScanPipeline})
}

func (s *PushedDownQuerySplit) UnmarshalJSON(data []byte) error {
	var w splitJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ScanPipeline == nil {
		return fmt.Errorf("split %s has no scanPipeline", w.SplitID)
	}
	*s = PushedDownQuerySplit{ConnectorID: w.ConnectorID, SplitID: w.SplitID, ScanPipeline: w.ScanPipeline}
	return nil
}

// The CBOR form embeds the tagged JSON pipeline so both forms share one
// variant discriminator.
type splitCBOR struct {
	ConnectorID  string `cbor:"connectorId"`
	SplitID      []byte `cbor:"splitId"`
	ScanPipeline []byte `cbor:"scanPipeline"`
}

func (s *PushedDownQuerySplit) MarshalCBOR() ([]byte, error) {
	p, err := pipeline.Encode(s.ScanPipeline)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(splitCBOR{ConnectorID: s.ConnectorID, SplitID: s.SplitID[:], ScanPipeline: p})
}

func (s *PushedDownQuerySplit) UnmarshalCBOR(data []byte) error {
	var w splitCBOR
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := uuid.FromBytes(w.SplitID)
	if err != nil {
		return fmt.Errorf("invalid splitId: %w", err)
	}
	p, err := pipeline.Decode(w.ScanPipeline)
	if err != nil {
		return fmt.Errorf("split %s: %w", id, err)
	}
	*s = PushedDownQuerySplit{ConnectorID: w.ConnectorID, SplitID: id, ScanPipeline: p}
	return nil
}

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

func EncodeSplit(s *PushedDownQuerySplit, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, "":
		return json.Marshal(s)
	case FormatCBOR:
		return cbor.Marshal(s)
	default:
		return nil, fmt.Errorf("unsupported split format %s", f)
	}
}

func DecodeSplit(data []byte, f Format) (*PushedDownQuerySplit, error) {
	s := &PushedDownQuerySplit{}
	var err error
	switch f {
	case FormatJSON, "":
		err = json.Unmarshal(data, s)
	case FormatCBOR:
		err = cbor.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("unsupported split format %s", f)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
