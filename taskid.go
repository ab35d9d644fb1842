// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "code.hybscloud.com/atomix"

// TaskID is a monotonically increasing task identifier.
// Each call to NewTask assigns the next value; ids are never reused.
type TaskID = uint64

// taskCounter is the global monotonic counter for task ids.
var taskCounter atomix.Uint64

// nextTaskID returns the next monotonically increasing task id.
func nextTaskID() TaskID {
	return taskCounter.Add(1)
}
