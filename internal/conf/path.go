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
	"strings"
)

const (
	etcDir          = "etc"
	logDir          = "log"
	PushdownBaseKey = "PushdownBaseKey"
)

var (
	LoadFileType    = "relative"
	AbsoluteMapping = map[string]string{
		etcDir: "/etc/pushdown",
		logDir: "/var/log/pushdown",
	}
)

func GetConfLoc() (string, error) {
	return GetLoc(etcDir)
}

func absolutePath(loc string) (dir string, err error) {
	for relDir, absoluteDir := range AbsoluteMapping {
		if strings.HasPrefix(loc, relDir) {
			dir = strings.Replace(loc, relDir, absoluteDir, 1)
			break
		}
	}
	if len(dir) == 0 {
		return "", fmt.Errorf("location %s is not allowed for absolute mode", loc)
	}
	return dir, nil
}

// GetLoc subdir must be a relative path
func GetLoc(subdir string) (string, error) {
	switch LoadFileType {
	case "relative":
		return relativePath(subdir)
	case "absolute":
		return absolutePath(subdir)
	}
	return "", fmt.Errorf("unrecognized loading method %s", LoadFileType)
}

// relativePath looks for subdir in the base folder and its parents.
func relativePath(subdir string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if base := os.Getenv(PushdownBaseKey); base != "" {
		Log.Infof("Specified base folder at location %s.", base)
		dir = base
	}
	for {
		confDir := filepath.Join(dir, subdir)
		if _, err := os.Stat(confDir); err == nil {
			return confDir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("dir %s not found, please make sure it is created", subdir)
		}
		dir = parent
	}
}
