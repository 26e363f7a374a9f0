/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package replay

import "github.com/carverauto/signalradar/pkg/models"

// Merge folds delta into prev. Each top-level key in delta replaces the
// previous value wholesale; keys absent from delta carry over. prev is not
// modified.
func Merge(prev models.Snapshot, delta models.Delta) models.Snapshot {
	out := make(models.Snapshot, len(prev)+len(delta))

	for k, v := range prev {
		out[k] = v
	}

	for k, v := range delta {
		out[k] = v
	}

	return out
}
