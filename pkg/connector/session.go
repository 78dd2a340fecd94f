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
	"fmt"

	"github.com/lf-edge/pushdown/pkg/cast"
)

// Session carries the per query settings handed to connectors.
type Session struct {
	QueryID    string
	User       string
	Properties map[string]string
}

func NewSession(queryID, user string, props map[string]string) *Session {
	p := make(map[string]string, len(props))
	for k, v := range props {
		p[k] = v
	}
	return &Session{QueryID: queryID, User: user, Properties: p}
}

func (s *Session) Property(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.Properties[name]
	return v, ok
}

// BoolProperty returns the session property as a bool. The second result is
// false when the property is not set.
func (s *Session) BoolProperty(name string) (bool, bool, error) {
	v, ok := s.Property(name)
	if !ok {
		return false, false, nil
	}
	b, err := cast.ToBool(v, cast.CONVERT_ALL)
	if err != nil {
		return false, true, fmt.Errorf("session property %s: %w", name, err)
	}
	return b, true, nil
}

func (s *Session) IntProperty(name string) (int, bool, error) {
	v, ok := s.Property(name)
	if !ok {
		return 0, false, nil
	}
	i, err := cast.ToInt(v, cast.CONVERT_ALL)
	if err != nil {
		return 0, true, fmt.Errorf("session property %s: %w", name, err)
	}
	return i, true, nil
}
