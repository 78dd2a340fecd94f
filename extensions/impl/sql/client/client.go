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

package client

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lf-edge/pushdown/internal/conf"
)

const (
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 2 * time.Second
	DefaultMaxElapsedTime  = 10 * time.Second
)

func NewExponentialBackOff() *backoff.ExponentialBackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(DefaultInitialInterval),
		backoff.WithMaxInterval(DefaultMaxInterval),
		backoff.WithMaxElapsedTime(DefaultMaxElapsedTime),
	)
}

// SQLConnection is a lazily dialed database handle shared by the negotiation
// and the execution side of a connector.
type SQLConnection struct {
	sync.RWMutex
	url    string
	db     *sql.DB
	id     string
	closed bool
}

func NewSQLConnection(id, url string) (*SQLConnection, error) {
	if len(url) < 1 {
		return nil, fmt.Errorf("dburl should be defined")
	}
	conf.Log.Infof("create db %s with url:%v", id, url)
	return &SQLConnection{url: url, id: id}, nil
}

func (s *SQLConnection) GetId() string {
	return s.id
}

func (s *SQLConnection) Dial() error {
	s.Lock()
	defer s.Unlock()
	return s.dial()
}

// Reconnect keeps the current handle when it still answers a ping. Otherwise
// it reopens the database, retrying failed pings with exponential backoff
// until ctx is done. A url that cannot be opened is not retried.
func (s *SQLConnection) Reconnect(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()
	if s.db != nil {
		if err := s.db.PingContext(ctx); err == nil {
			return nil
		}
		s.db.Close()
		s.db = nil
	}
	return backoff.Retry(func() error {
		db, err := openDB(s.url)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("reconnect sql err:%v", err))
		}
		if err := db.PingContext(ctx); err != nil {
			conf.Log.Debugf("ping db %s failed, retrying: %v", s.id, err)
			db.Close()
			return err
		}
		s.db = db
		s.closed = false
		return nil
	}, backoff.WithContext(NewExponentialBackOff(), ctx))
}

func (s *SQLConnection) GetDB() *sql.DB {
	s.RLock()
	defer s.RUnlock()
	return s.db
}

func (s *SQLConnection) Ping() error {
	s.Lock()
	defer s.Unlock()
	if s.db == nil {
		err := s.dial()
		if err != nil {
			return err
		}
	}
	return s.db.Ping()
}

func (s *SQLConnection) Close() error {
	s.Lock()
	defer s.Unlock()
	if s.closed || s.db == nil {
		return nil
	}
	conf.Log.Infof("close db with url:%v", s.url)
	s.closed = true
	return s.db.Close()
}

func (s *SQLConnection) dial() error {
	db, err := openDB(s.url)
	if err != nil {
		return fmt.Errorf("create connection err:%v", err)
	}
	s.db = db
	s.closed = false
	return s.db.Ping()
}
