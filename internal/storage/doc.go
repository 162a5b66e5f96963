/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements board persistence and the editor state DB.
// Boards live in a directory holding board.json, written transactionally
// with timestamped backups and validated against an embedded JSON schema.
// The state DB (SQLite at <root>/.wbd/state.sqlite, or Postgres via pgx)
// keeps the operations sidebar state and the per-board undo history.
package storage
