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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	filename "github.com/keepeye/logrus-filename"
	"github.com/sirupsen/logrus"
	rotatelogs "github.com/yisaer/file-rotatelogs"
)

const logFileName = "pushdown.log"

var (
	Log       *logrus.Logger
	logWriter io.WriteCloser
)

func InitLogger() {
	Log = logrus.New()
	filenameHook := filename.NewHook()
	filenameHook.Field = "file"
	Log.AddHook(filenameHook)

	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
		FullTimestamp:   true,
	})

	Log.Debugf("init with args %s", os.Args)
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			IsTesting = true
			break
		}
	}
}

// configureLogger applies the basic section of the configuration.
func configureLogger(c *PushdownConf) {
	if c.Basic.Debug {
		Log.SetLevel(logrus.DebugLevel)
	}
	if !c.Basic.FileLog {
		if c.Basic.ConsoleLog {
			Log.SetOutput(os.Stdout)
		}
		return
	}
	dir, err := GetLoc(logDir)
	if err != nil {
		Log.Errorf("Failed to find the log folder, using default stderr: %v", err)
		return
	}
	w, err := newRotateWriter(filepath.Join(dir, logFileName), c.Basic.RotateTime, c.Basic.MaxAge)
	if err != nil {
		Log.Errorf("Failed to log to file, using default stderr: %v", err)
		return
	}
	logWriter = w
	if c.Basic.ConsoleLog {
		Log.SetOutput(io.MultiWriter(os.Stdout, w))
	} else {
		Log.SetOutput(w)
	}
}

func newRotateWriter(file string, rotateHours, maxAgeHours int) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(
		file+".%Y-%m-%d_%H-%M-%S",
		rotatelogs.WithLinkName(file),
		rotatelogs.WithRotationTime(time.Hour*time.Duration(rotateHours)),
		rotatelogs.WithMaxAge(time.Hour*time.Duration(maxAgeHours)),
	)
}

func CloseLogger() {
	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
