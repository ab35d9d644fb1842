// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// BlockOn polls f on the calling goroutine until it completes and returns
// its result. Between polls it waits for f's waker with adaptive backoff
// (iox.Backoff), without spawning goroutines or creating channels.
//
// BlockOn is for hosted code and for boot paths that run before an
// executor exists.
func BlockOn(f Future) error {
	var woken atomix.Uint32
	w := WakerFunc(func() { woken.Store(1) })
	var bo iox.Backoff
	for {
		err := f.Poll(w)
		if !iox.IsWouldBlock(err) {
			return err
		}
		for !woken.CompareAndSwap(1, 0) {
			bo.Wait()
		}
		bo.Reset()
	}
}
