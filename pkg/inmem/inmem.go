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

// Package inmem provides in-memory business collaborators for the admin server.
// They back the standalone server and the tests.
package inmem

import (
	"github.com/Masterminds/semver"
	"github.com/oysterpack/esbadmin/pkg/manager"
	"github.com/oysterpack/esbadmin/pkg/rpcerr"
)

// parseVersion validates the version and returns its normalized form
func parseVersion(version string) (string, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", rpcerr.NewDomainError(manager.INVALID_VERSION, "invalid version : %q", version)
	}
	return v.String(), nil
}

func versionKey(guid, version string) string {
	return guid + "@" + version
}
