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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const Separator = "__"

// LoadConfigFromPath decodes the yaml file at p into c. Environment
// variables named PREFIX__SECTION__KEY override the file, where PREFIX is the
// upper cased file name without extension.
func LoadConfigFromPath(p string, c any) error {
	b, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	return loadConfig(b, getPrefix(p), os.Environ(), c)
}

func loadConfig(b []byte, prefix string, env []string, c any) error {
	configMap := make(map[string]any)
	if err := yaml.Unmarshal(b, &configMap); err != nil {
		return err
	}
	configs := normalize(configMap)
	if err := process(configs, env, prefix); err != nil {
		return err
	}
	return mapstructure.Decode(configs, c)
}

func getPrefix(p string) string {
	file := filepath.Base(p)
	return strings.ToUpper(strings.TrimSuffix(file, filepath.Ext(file)))
}

func process(configMap map[string]any, variables []string, prefix string) error {
	for _, e := range variables {
		if !strings.HasPrefix(e, prefix+Separator) {
			continue
		}
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			return fmt.Errorf("wrong format of variable %s", e)
		}
		keys := nameToKeys(trimPrefix(pair[0], prefix))
		if err := handle(configMap, keys, pair[1]); err != nil {
			return fmt.Errorf("apply %s: %w", pair[0], err)
		}
		printableK := strings.Join(keys, ".")
		printableV := pair[1]
		if strings.Contains(strings.ToLower(printableK), "password") {
			printableV = "*"
		}
		Log.Infof("Set config '%s.%s' to '%s' by environment variable", strings.ToLower(prefix), printableK, printableV)
	}
	return nil
}

func handle(conf map[string]any, keysLeft []string, val string) error {
	key := strings.ToLower(keysLeft[0])
	if len(keysLeft) == 1 {
		conf[key] = getValueType(val)
		return nil
	}
	v, ok := conf[key]
	if !ok || v == nil {
		next := make(map[string]any)
		conf[key] = next
		return handle(next, keysLeft[1:], val)
	}
	casted, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%s is not a section", key)
	}
	return handle(casted, keysLeft[1:], val)
}

func trimPrefix(key string, prefix string) string {
	return strings.TrimPrefix(key, prefix+Separator)
}

func nameToKeys(key string) []string {
	return strings.Split(strings.ToLower(key), Separator)
}

func getValueType(val string) any {
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]") {
		val = strings.TrimSuffix(strings.TrimPrefix(val, "["), "]")
		var ret []any
		for _, v := range strings.Split(val, ",") {
			ret = append(ret, getValueType(v))
		}
		return ret
	} else if i, err := strconv.ParseInt(val, 10, 64); err == nil {
		return i
	} else if b, err := strconv.ParseBool(val); err == nil {
		return b
	} else if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	return val
}

func normalize(m map[string]any) map[string]any {
	res := make(map[string]any)
	for k, v := range m {
		lowered := strings.ToLower(k)
		if casted, success := v.(map[string]any); success {
			res[lowered] = normalize(casted)
		} else {
			res[lowered] = v
		}
	}
	return res
}

// Printable masks password values for logging.
func Printable(m map[string]any) map[string]any {
	printableMap := make(map[string]any)
	for k, v := range m {
		if strings.ToLower(k) == "password" {
			printableMap[k] = "***"
		} else if vm, ok := v.(map[string]any); ok {
			printableMap[k] = Printable(vm)
		} else {
			printableMap[k] = v
		}
	}
	return printableMap
}
