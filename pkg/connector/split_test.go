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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

func testSplit(t *testing.T) *PushedDownQuerySplit {
	table, err := pipeline.NewTableNode("main", "orders", []string{"id", "amount"}, []types.Type{types.BigInt, types.Double})
	require.NoError(t, err)
	p, err := pipeline.Seed(table, []ColumnHandle{
		&memHandle{Name: "id", Type: types.BigInt, Index: 0},
		&memHandle{Name: "amount", Type: types.Double, Index: 1},
	})
	require.NoError(t, err)
	filter, err := pipeline.NewFilterNode(
		pipeline.NewFunction(">=", pipeline.NewInputColumn("amount", types.Double), pipeline.NewLiteral(10.5, types.Double)),
		[]string{"id", "amount"}, []types.Type{types.BigInt, types.Double})
	require.NoError(t, err)
	p = p.Extend(filter, p.OutputColumnHandles())
	project, err := pipeline.NewProjectNode(
		[]pipeline.Expression{pipeline.NewInputColumn("id", types.BigInt)},
		[]string{"id"}, []types.Type{types.BigInt})
	require.NoError(t, err)
	p = p.Extend(project, []ColumnHandle{&memHandle{Name: "id", Type: types.BigInt}})
	return NewPushedDownQuerySplit("mem", p)
}

func TestSplitJSON(t *testing.T) {
	s := testSplit(t)
	assert.NotEqual(t, uuid.Nil, s.SplitID)
	assert.True(t, s.RemotelyAccessible())
	assert.Empty(t, s.Addresses())

	b, err := EncodeSplit(s, FormatJSON)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "mem", raw["connectorId"])
	assert.Equal(t, s.SplitID.String(), raw["splitId"])
	assert.Contains(t, raw, "scanPipeline")

	decoded, err := DecodeSplit(b, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestSplitCBOR(t *testing.T) {
	s := testSplit(t)
	b, err := EncodeSplit(s, FormatCBOR)
	require.NoError(t, err)
	decoded, err := DecodeSplit(b, FormatCBOR)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
	assert.NoError(t, decoded.ScanPipeline.Validate())
}

func TestSplitInfo(t *testing.T) {
	s := testSplit(t)
	info := s.Info()
	assert.Equal(t, "mem", info["connectorId"])
	assert.Equal(t, "Table: main.orders,Filter: >=(amount, 10.5),Project: id AS id", info["scanPipeline"])
}

func TestSplitDecodeErrors(t *testing.T) {
	_, err := DecodeSplit([]byte(`{"connectorId":"mem","splitId":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`), FormatJSON)
	assert.EqualError(t, err, "split 6ba7b810-9dad-11d1-80b4-00c04fd430c8 has no scanPipeline")

	_, err = DecodeSplit([]byte(`{}`), "xml")
	assert.EqualError(t, err, "unsupported split format xml")
	_, err = EncodeSplit(testSplit(t), "xml")
	assert.EqualError(t, err, "unsupported split format xml")

	_, err = DecodeSplit([]byte(`{"connectorId":"mem","splitId":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","scanPipeline":{"pipelineNodes":[{"@type":"sort"}],"outputColumnHandles":[]}}`), FormatJSON)
	assert.EqualError(t, err, "unknown pipeline node type sort")
}
