package allocator

import "errors"

var ErrCounterExhausted = errors.New("identifier counter is exhausted")
var ErrCounterCorrupt = errors.New("identifier counter file is corrupt")
var ErrCounterBusy = errors.New("identifier counter is locked by another process")
