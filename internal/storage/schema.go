/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed board.schema.json
var boardSchemaJSON []byte

// ErrSchema reports a board file that does not match the board schema.
var ErrSchema = errors.New("board does not conform to schema")

var boardSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(boardSchemaJSON))
})

// BoardSchema returns the embedded JSON schema for board.json.
func BoardSchema() []byte { return append([]byte(nil), boardSchemaJSON...) }

// ValidateBoardJSON checks data against the board schema. Violations are
// reported as one ErrSchema-wrapped error listing every failing field.
func ValidateBoardJSON(data []byte) error {
	s, err := boardSchema()
	if err != nil {
		return fmt.Errorf("load board schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate board: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
