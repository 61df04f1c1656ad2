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

package commons_test

import (
	"testing"

	"github.com/oysterpack/esbadmin/pkg/commons"
)

func TestCloseQuietly(t *testing.T) {
	c := make(chan struct{})
	commons.CloseQuietly(c)
	// closing twice must not panic
	commons.CloseQuietly(c)
	select {
	case <-c:
	default:
		t.Error("channel should be closed")
	}
}

func TestStringMapsAreEqual(t *testing.T) {
	if !commons.StringMapsAreEqual(map[string]string{"a": "1"}, map[string]string{"a": "1"}) {
		t.Error("maps should be equal")
	}
	if commons.StringMapsAreEqual(map[string]string{"a": "1"}, map[string]string{"a": "2"}) {
		t.Error("maps should not be equal")
	}
	if !commons.StringMapsAreEqual(nil, map[string]string{}) {
		t.Error("nil and empty maps should be equal")
	}
}

func TestStringSlicesAreEqual(t *testing.T) {
	if !commons.StringSlicesAreEqual([]string{"a", "b"}, []string{"a", "b"}) {
		t.Error("slices should be equal")
	}
	if commons.StringSlicesAreEqual([]string{"a", "b"}, []string{"b", "a"}) {
		t.Error("order matters")
	}
}
