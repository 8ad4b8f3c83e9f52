package animator

import (
	"context"
	"fmt"
	"sync"

	"mousefx/internal/motion"
	"mousefx/internal/obs"
)

// MemoryHost is an in-process Host holding scene item transforms in a map
type MemoryHost struct {
	mu     sync.Mutex
	items  map[string]motion.Transform
	reads  int
	writes int
}

// NewMemoryHost creates an empty host
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{items: make(map[string]motion.Transform)}
}

func memoryKey(scene, source string) string {
	return scene + "\x00" + source
}

// Put creates or replaces an item
func (h *MemoryHost) Put(scene, source string, t motion.Transform) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[memoryKey(scene, source)] = t
}

// Remove deletes an item; later calls for it report the target unavailable
func (h *MemoryHost) Remove(scene, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.items, memoryKey(scene, source))
}

// Get returns the stored transform of an item
func (h *MemoryHost) Get(scene, source string) (motion.Transform, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.items[memoryKey(scene, source)]
	return t, ok
}

// Reads returns the number of successful reads
func (h *MemoryHost) Reads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

// Writes returns the number of successful writes
func (h *MemoryHost) Writes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

func (h *MemoryHost) SceneItemTransform(ctx context.Context, scene, source string) (motion.Transform, error) {
	if err := ctx.Err(); err != nil {
		return motion.Transform{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.items[memoryKey(scene, source)]
	if !ok {
		return motion.Transform{}, fmt.Errorf("%w: %s/%s", obs.ErrTargetUnavailable, scene, source)
	}
	h.reads++
	return t, nil
}

func (h *MemoryHost) SetSceneItemTransform(ctx context.Context, scene, source string, t motion.Transform) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	k := memoryKey(scene, source)
	if _, ok := h.items[k]; !ok {
		return fmt.Errorf("%w: %s/%s", obs.ErrTargetUnavailable, scene, source)
	}
	h.items[k] = t
	h.writes++
	return nil
}
