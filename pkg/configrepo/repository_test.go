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

package configrepo_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/oysterpack/esbadmin/pkg/configrepo"
	"github.com/oysterpack/esbadmin/pkg/event"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

type sink struct {
	events []*event.ConfigurationEvent
}

func (s *sink) Push(e event.Event) bool {
	s.events = append(s.events, e.(*event.ConfigurationEvent))
	return true
}

func openRepository(t *testing.T) (*configrepo.Repository, string) {
	path := filepath.Join(t.TempDir(), "config.db")
	repo, err := configrepo.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return repo, path
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var domainErr *rpcerr.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != manager.CONFIG_NOT_FOUND {
		t.Errorf("expected CONFIG_NOT_FOUND : %v", err)
	}
}

func TestRepository_PersistGetDelete(t *testing.T) {
	repo, _ := openRepository(t)
	defer repo.Close()
	events := &sink{}
	repo.Subscribe(events)

	if err := repo.PersistConfiguration("orders-db", "JDBC", []byte("url=jdbc:h2:mem")); err != nil {
		t.Fatal(err)
	}
	if err := repo.PersistConfiguration("inbox", "JMS", []byte("queue=in")); err != nil {
		t.Fatal(err)
	}

	config, err := repo.GetConfiguration("orders-db")
	if err != nil {
		t.Fatal(err)
	}
	if config.Name != "orders-db" || config.Type != "JDBC" || string(config.Data) != "url=jdbc:h2:mem" {
		t.Errorf("unexpected configuration : %v", config)
	}

	if names, _ := repo.ListConfigurations(""); len(names) != 2 || names[0] != "inbox" || names[1] != "orders-db" {
		t.Errorf("unexpected names : %v", names)
	}
	if names, _ := repo.ListConfigurations("JMS"); len(names) != 1 || names[0] != "inbox" {
		t.Errorf("unexpected names : %v", names)
	}
	if names, _ := repo.ListConfigurations("FTP"); len(names) != 0 {
		t.Errorf("unexpected names : %v", names)
	}

	if err := repo.DeleteConfiguration("inbox"); err != nil {
		t.Fatal(err)
	}
	_, err = repo.GetConfiguration("inbox")
	assertNotFound(t, err)
	assertNotFound(t, repo.DeleteConfiguration("inbox"))

	if len(events.events) != 3 {
		t.Fatalf("unexpected events : %v", events.events)
	}
	if e := events.events[2]; !e.Deleted || e.Name != "inbox" || e.ConfigType != "JMS" || e.Category() != event.ConfigurationDeleted {
		t.Errorf("unexpected delete event : %v", e)
	}
	if e := events.events[0]; e.Deleted || e.Category() != event.ConfigurationPersisted {
		t.Errorf("unexpected persist event : %v", e)
	}
}

func TestRepository_ChangeType(t *testing.T) {
	repo, _ := openRepository(t)
	defer repo.Close()

	repo.PersistConfiguration("c1", "JDBC", nil)
	if err := repo.PersistConfiguration("c1", "JMS", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if names, _ := repo.ListConfigurations("JDBC"); len(names) != 0 {
		t.Errorf("configuration should have moved : %v", names)
	}
	if config, _ := repo.GetConfiguration("c1"); config.Type != "JMS" {
		t.Errorf("unexpected configuration : %v", config)
	}
}

func TestRepository_Reopen(t *testing.T) {
	repo, path := openRepository(t)
	repo.PersistConfiguration("c1", "JDBC", []byte("data"))
	if err := repo.Close(); err != nil {
		t.Fatal(err)
	}

	repo, err := configrepo.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	config, err := repo.GetConfiguration("c1")
	if err != nil {
		t.Fatal(err)
	}
	if string(config.Data) != "data" {
		t.Errorf("unexpected data : %q", config.Data)
	}
}

func TestRepository_Ping(t *testing.T) {
	repo, _ := openRepository(t)
	if err := repo.Ping(); err != nil {
		t.Error(err)
	}
	repo.Close()
	if err := repo.Ping(); err == nil {
		t.Error("ping should fail after the database is closed")
	}
}
