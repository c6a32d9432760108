//go:build linux || freebsd || darwin

/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package plugins

import (
	"plugin"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
)

// ExtensionPoints lets plugins contribute sinks and checkpoint
// storages, selectable by name in the configuration.
type ExtensionPoints interface {
	RegisterStateStorage(name string, provider statestorage.Provider) bool
	RegisterSink(name string, provider sink.Provider) bool
}

// PluginInitialize is the symbol every plugin has to export.
type PluginInitialize func(extensionPoints ExtensionPoints) error

func LoadPlugins(
	c *config.Config,
) error {

	for _, pluginPath := range c.Plugins {
		p, err := plugin.Open(pluginPath)
		if err != nil {
			return errors.Errorf("failed to open plugin %s: %s", pluginPath, err)
		}

		symbol, err := p.Lookup("PluginInitialize")
		if err != nil {
			return errors.Errorf("plugin %s has no initializer: %s", pluginPath, err)
		}

		initialize, ok := symbol.(PluginInitialize)
		if !ok {
			// Lookup returns a pointer for exported variables
			pointer, isPointer := symbol.(*PluginInitialize)
			if !isPointer {
				return errors.Errorf("plugin %s exports an initializer of the wrong type", pluginPath)
			}
			initialize = *pointer
		}

		if err := initialize(&extensionPoints{}); err != nil {
			return err
		}
	}
	return nil
}

type extensionPoints struct {
}

func (*extensionPoints) RegisterStateStorage(
	name string, provider statestorage.Provider,
) bool {

	return statestorage.RegisterStateStorage(config.StateStorageType(name), provider)
}

func (*extensionPoints) RegisterSink(
	name string, provider sink.Provider,
) bool {

	return sink.RegisterSink(config.SinkType(name), provider)
}
