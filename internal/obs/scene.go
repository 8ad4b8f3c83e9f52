package obs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"mousefx/internal/motion"
)

func newRequestID() string {
	return uuid.NewString()
}

type itemKey struct {
	scene  string
	source string
}

// itemCache remembers scene item ids so a tick costs one round trip
type itemCache struct {
	mu  sync.Mutex
	ids map[itemKey]int
}

func newItemCache() *itemCache {
	return &itemCache{ids: make(map[itemKey]int)}
}

func (c *itemCache) get(k itemKey) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[k]
	return id, ok
}

func (c *itemCache) put(k itemKey, id int) {
	c.mu.Lock()
	c.ids[k] = id
	c.mu.Unlock()
}

func (c *itemCache) evict(k itemKey) {
	c.mu.Lock()
	delete(c.ids, k)
	c.mu.Unlock()
}

func (c *itemCache) reset() {
	c.mu.Lock()
	c.ids = make(map[itemKey]int)
	c.mu.Unlock()
}

func (c *Client) sceneItemID(ctx context.Context, k itemKey) (int, error) {
	if k.scene == "" || k.source == "" {
		return 0, fmt.Errorf("%w: no scene or source configured", ErrTargetUnavailable)
	}
	if id, ok := c.items.get(k); ok {
		return id, nil
	}

	var resp struct {
		SceneItemID int `json:"sceneItemId"`
	}
	err := c.request(ctx, "GetSceneItemId", map[string]interface{}{
		"sceneName":  k.scene,
		"sourceName": k.source,
	}, &resp)
	if err != nil {
		return 0, err
	}

	c.items.put(k, resp.SceneItemID)
	return resp.SceneItemID, nil
}

// withItem resolves the item id and runs fn, evicting the cached id when
// OBS no longer knows it
func (c *Client) withItem(ctx context.Context, scene, source string, fn func(id int) error) error {
	k := itemKey{scene: scene, source: source}
	id, err := c.sceneItemID(ctx, k)
	if err != nil {
		return err
	}
	if err := fn(id); err != nil {
		if errors.Is(err, ErrTargetUnavailable) {
			c.items.evict(k)
		}
		return err
	}
	return nil
}

// SceneItemTransform reads the transform of source within scene
func (c *Client) SceneItemTransform(ctx context.Context, scene, source string) (motion.Transform, error) {
	var out motion.Transform
	err := c.withItem(ctx, scene, source, func(id int) error {
		var resp struct {
			Transform SceneItemTransform `json:"sceneItemTransform"`
		}
		if err := c.request(ctx, "GetSceneItemTransform", map[string]interface{}{
			"sceneName":   scene,
			"sceneItemId": id,
		}, &resp); err != nil {
			return err
		}
		out = fromWire(resp.Transform)
		return nil
	})
	return out, err
}

// SetSceneItemTransform writes position, rotation and scale of source within scene
func (c *Client) SetSceneItemTransform(ctx context.Context, scene, source string, t motion.Transform) error {
	return c.withItem(ctx, scene, source, func(id int) error {
		return c.request(ctx, "SetSceneItemTransform", map[string]interface{}{
			"sceneName":          scene,
			"sceneItemId":        id,
			"sceneItemTransform": toWire(t),
		}, nil)
	})
}

// Scenes lists the scenes of the current scene collection
func (c *Client) Scenes(ctx context.Context) ([]Scene, error) {
	var resp struct {
		Scenes []Scene `json:"scenes"`
	}
	if err := c.request(ctx, "GetSceneList", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Scenes, nil
}

// SceneItems lists the items of scene
func (c *Client) SceneItems(ctx context.Context, scene string) ([]SceneItem, error) {
	var resp struct {
		SceneItems []SceneItem `json:"sceneItems"`
	}
	if err := c.request(ctx, "GetSceneItemList", map[string]interface{}{
		"sceneName": scene,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.SceneItems, nil
}

func fromWire(w SceneItemTransform) motion.Transform {
	return motion.Transform{
		Position: mgl64.Vec2{w.PositionX, w.PositionY},
		Rotation: w.Rotation,
		Scale:    mgl64.Vec2{w.ScaleX, w.ScaleY},
	}
}

func toWire(t motion.Transform) SceneItemTransform {
	return SceneItemTransform{
		PositionX: t.Position.X(),
		PositionY: t.Position.Y(),
		Rotation:  t.Rotation,
		ScaleX:    t.Scale.X(),
		ScaleY:    t.Scale.Y(),
	}
}
