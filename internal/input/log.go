package input

import (
	"log"
	"sync"
)

var unavailableOnce sync.Once

// logUnavailable reports a platform initialization failure once per process
func logUnavailable(err error) {
	unavailableOnce.Do(func() {
		log.Printf("Input: Cursor sampling unavailable, using defaults: %v", err)
	})
}
