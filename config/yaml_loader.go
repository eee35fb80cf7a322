// Copyright 2017 The Fuchsia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"io/ioutil"
	"os"

	"github.com/golang/glog"
	"gopkg.in/yaml.v2"

	"github.com/fuchsia-br/cobalt-core/status"
)

// LoadConfig reads a CobaltConfig registry from a human-authored YAML
// file. This replaces the teacher's YAML-through-jsonpb detour
// (config/config_parser/src/yamlpb/yamlpb.go) with a direct yaml.v2
// unmarshal, since our config messages are hand-written Go structs
// rather than protoc-generated ones and there is no JSON-shaped target
// to route through.
func LoadConfig(configFileName string) (*CobaltConfig, *status.Status) {
	if configFileName == "" {
		return nil, status.Errorf(status.InvalidArguments, "provide a valid config file")
	}
	if _, err := os.Stat(configFileName); err != nil {
		return nil, status.Errorf(status.NotFound, "%v", err)
	}
	glog.Info("Reading Cobalt configuration from ", configFileName, ".")
	raw, err := ioutil.ReadFile(configFileName)
	if err != nil {
		return nil, status.Errorf(status.Other, "reading config file: %v", err)
	}
	cfg := &CobaltConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, status.Errorf(status.InvalidConfig, "parsing config file: %v", err)
	}
	glog.Infof("Loaded %d customers from %s.", len(cfg.Customers), configFileName)
	return cfg, nil
}
