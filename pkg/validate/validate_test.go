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

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lf-edge/pushdown/pkg/errorx"
)

func TestValidateID(t *testing.T) {
	testcases := []struct {
		id  string
		err string
	}{
		{"sqlite1", ""},
		{"pg-main_2", ""},
		{"", "id cannot be empty"},
		{" abc", "id ' abc' contains leading or trailing whitespace"},
		{"a.b", "id 'a.b' contains invalid characters: only alphanumeric, hyphens and underscores are allowed"},
		{"a:b", "id 'a:b' contains invalid characters: only alphanumeric, hyphens and underscores are allowed"},
	}
	for _, tc := range testcases {
		err := ValidateID(tc.id)
		if tc.err == "" {
			assert.NoError(t, err, tc.id)
			continue
		}
		assert.EqualError(t, err, tc.err)
		assert.True(t, errorx.IsValidationError(err))
	}
}
