/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"fmt"
	"os"
	"path/filepath"

	"blockbridge-go/internal/models"

	"gopkg.in/yaml.v2"
)

type documentsFile struct {
	Documents models.DocumentHandles `yaml:"documents"`
}

// LoadDocumentHandles reads the document handle map from the given YAML
// file. Every collection must be bound to a handle.
func LoadDocumentHandles(file string) (models.DocumentHandles, error) {
	var path string
	if filepath.IsAbs(file) {
		path = file
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return models.DocumentHandles{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.DocumentHandles{}, fmt.Errorf("unable to read %s: %w", file, err)
	}

	var parsed documentsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return models.DocumentHandles{}, fmt.Errorf("unable to parse %s: %w", file, err)
	}

	handles := parsed.Documents
	for name, handle := range map[string]string{
		"users":               handles.Users,
		"funding_requests":    handles.FundingRequests,
		"withdrawal_requests": handles.WithdrawalRequests,
		"notifications":       handles.Notifications,
		"messages":            handles.Messages,
	} {
		if handle == "" {
			return models.DocumentHandles{}, fmt.Errorf("%s: missing handle for %s", file, name)
		}
	}

	return handles, nil
}
