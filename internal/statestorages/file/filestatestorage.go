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

package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/docker/docker/pkg/ioutils"
	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/changeevent"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/statestorage"
)

func init() {
	statestorage.RegisterStateStorage(config.FileStorage, newFileStateStorage)
}

// fileStateStorage keeps the checkpoints as a JSON object of
// collection name to resume token. Every Set rewrites the file
// atomically.
type fileStateStorage struct {
	path        string
	mutex       sync.Mutex
	logger      *logging.Logger
	encoder     *encoding.JsonEncoder
	decoder     *encoding.JsonDecoder
	checkpoints statestorage.Checkpoints
}

func newFileStateStorage(
	c *config.Config,
) (statestorage.Storage, error) {

	path := config.GetOrDefault(c, config.PropertyFileStateStoragePath, "")
	if path == "" {
		return nil, errors.Errorf("file state storage needs a path to be configured")
	}
	return NewFileStateStorage(path, encoding.NewJsonEncoderWithConfig(c), encoding.NewJsonDecoderWithConfig(c))
}

func NewFileStateStorage(
	path string, encoder *encoding.JsonEncoder, decoder *encoding.JsonDecoder,
) (statestorage.Storage, error) {

	logger, err := logging.NewLogger("FileStateStorage")
	if err != nil {
		return nil, err
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Errorf("failed to create directory '%s': %s", directory, err)
	}

	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return nil, errors.Errorf("path '%s' exists already but is not a file", path)
	} else if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, 0)
	}

	return &fileStateStorage{
		path:        path,
		logger:      logger,
		encoder:     encoder,
		decoder:     decoder,
		checkpoints: make(statestorage.Checkpoints),
	}, nil
}

func (f *fileStateStorage) Start() error {
	f.logger.Infof("Starting file state storage at %s", f.path)
	return f.Load()
}

func (f *fileStateStorage) Stop() error {
	f.logger.Infof("Stopping file state storage at %s", f.path)
	f.mutex.Lock()
	for collection, token := range f.checkpoints {
		f.logger.Debugf("Last checkpoint of %s: %s", collection, token)
	}
	f.mutex.Unlock()
	return f.Save()
}

func (f *fileStateStorage) Save() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.save()
}

func (f *fileStateStorage) save() error {
	data, err := f.encoder.Marshal(f.checkpoints)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	writer, err := ioutils.NewAtomicFileWriter(f.path, 0644)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, 0)
	}
	// Close renames the temporary file into place
	return writer.Close()
}

// Load reads the persisted checkpoints. A missing, empty or corrupt
// file yields no checkpoints, so the streams start at the current
// position.
func (f *fileStateStorage) Load() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.checkpoints = make(statestorage.Checkpoints)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, 0)
	}
	if len(data) == 0 {
		return nil
	}

	checkpoints := make(statestorage.Checkpoints)
	if err := f.decoder.Unmarshal(data, &checkpoints); err != nil {
		f.logger.Warnf("Ignoring corrupt checkpoint file %s: %s", f.path, err)
		return nil
	}
	f.checkpoints = checkpoints
	return nil
}

func (f *fileStateStorage) Get() (map[string]changeevent.Token, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.checkpoints.Copy(), nil
}

func (f *fileStateStorage) Set(
	collection string, token changeevent.Token,
) error {

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.checkpoints[collection] = token
	return f.save()
}
