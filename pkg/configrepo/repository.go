// Copyright (c) 2017 OysterPack, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package configrepo is a named configuration repository persisted in a bolt database.
//
// The layout is:
//
//	configurations/<type>/<name> -> JSON encoded record
//	names/<name>                 -> <type>
//
// Configuration names are unique across types. Persisting a configuration under a new type moves it.
package configrepo

import (
	"errors"
	"sort"
	"time"

	"github.com/json-iterator/go"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/logging"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
	bolt "go.etcd.io/bbolt"
)

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// log events
const (
	REPO_OPENED          = logging.LogEventID(0xd14b8e27c9a3f056)
	REPO_CLOSED          = logging.LogEventID(0x8f3a62d05be1c794)
	CONFIG_PERSISTED     = logging.LogEventID(0xb5c91e7d04f8a236)
	CONFIG_DELETED       = logging.LogEventID(0xe07a4d93c615bf28)
	CONFIG_DECODE_FAILED = logging.LogEventID(0xa2d6f0c8395e14b7)
)

var (
	configurationsBucket = []byte("configurations")
	namesBucket          = []byte("names")
)

// DefaultOpenTimeout is how long Open waits to obtain the database file lock
const DefaultOpenTimeout = 5 * time.Second

type record struct {
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Data    []byte    `json:"data"`
	Updated time.Time `json:"updated"`
}

// Repository implements manager.NamedConfigurationRepository and event.Source.
// Persist and delete publish ConfigurationEvents after the transaction commits.
type Repository struct {
	event.Broadcaster

	db *bolt.DB
}

// Open opens, or creates, the bolt database file
func Open(path string) (*Repository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: DefaultOpenTimeout})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(configurationsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(namesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	REPO_OPENED.Log(logger.Info()).Str("path", path).Msg("opened")
	return &Repository{db: db}, nil
}

// Close closes the database
func (r *Repository) Close() error {
	REPO_CLOSED.Log(logger.Info()).Str("path", r.db.Path()).Msg("closed")
	return r.db.Close()
}

// Ping verifies the database is open and the buckets exist
func (r *Repository) Ping() error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(configurationsBucket) == nil || tx.Bucket(namesBucket) == nil {
			return errors.New("configuration buckets are missing")
		}
		return nil
	})
}

func notFound(name string) error {
	return rpcerr.NewDomainError(manager.CONFIG_NOT_FOUND, "configuration not found : %s", name)
}

// ListConfigurations implements manager.NamedConfigurationRepository
func (r *Repository) ListConfigurations(configType string) ([]string, error) {
	names := []string{}
	err := r.db.View(func(tx *bolt.Tx) error {
		if configType == "" {
			return tx.Bucket(namesBucket).ForEach(func(k, v []byte) error {
				names = append(names, string(k))
				return nil
			})
		}
		b := tx.Bucket(configurationsBucket).Bucket([]byte(configType))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// GetConfiguration implements manager.NamedConfigurationRepository
func (r *Repository) GetConfiguration(name string) (manager.NamedConfiguration, error) {
	var rec record
	err := r.db.View(func(tx *bolt.Tx) error {
		configType := tx.Bucket(namesBucket).Get([]byte(name))
		if configType == nil {
			return notFound(name)
		}
		b := tx.Bucket(configurationsBucket).Bucket(configType)
		if b == nil {
			return notFound(name)
		}
		value := b.Get([]byte(name))
		if value == nil {
			return notFound(name)
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			CONFIG_DECODE_FAILED.Log(logger.Error()).Str("name", name).Err(err).Msg("")
			return err
		}
		return nil
	})
	if err != nil {
		return manager.NamedConfiguration{}, err
	}
	return manager.NamedConfiguration{Name: rec.Name, Type: rec.Type, Data: rec.Data}, nil
}

// PersistConfiguration implements manager.NamedConfigurationRepository
func (r *Repository) PersistConfiguration(name, configType string, data []byte) error {
	if name == "" || configType == "" {
		return rpcerr.NewDomainError(manager.INVALID_STATE, "configuration name and type are required")
	}
	value, err := json.Marshal(&record{Name: name, Type: configType, Data: data, Updated: time.Now()})
	if err != nil {
		return err
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(namesBucket)
		configurations := tx.Bucket(configurationsBucket)
		if previous := names.Get([]byte(name)); previous != nil && string(previous) != configType {
			if b := configurations.Bucket(previous); b != nil {
				if err := b.Delete([]byte(name)); err != nil {
					return err
				}
			}
		}
		b, err := configurations.CreateBucketIfNotExists([]byte(configType))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(name), value); err != nil {
			return err
		}
		return names.Put([]byte(name), []byte(configType))
	})
	if err != nil {
		return err
	}
	CONFIG_PERSISTED.Log(logger.Debug()).Str("name", name).Str("type", configType).Msg("")
	r.Publish(&event.ConfigurationEvent{Name: name, ConfigType: configType})
	return nil
}

// DeleteConfiguration implements manager.NamedConfigurationRepository
func (r *Repository) DeleteConfiguration(name string) error {
	var configType string
	err := r.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(namesBucket)
		t := names.Get([]byte(name))
		if t == nil {
			return notFound(name)
		}
		configType = string(t)
		if b := tx.Bucket(configurationsBucket).Bucket(t); b != nil {
			if err := b.Delete([]byte(name)); err != nil {
				return err
			}
		}
		return names.Delete([]byte(name))
	})
	if err != nil {
		return err
	}
	CONFIG_DELETED.Log(logger.Debug()).Str("name", name).Str("type", configType).Msg("")
	r.Publish(&event.ConfigurationEvent{Deleted: true, Name: name, ConfigType: configType})
	return nil
}
