package switchbot

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

// Scenes fetches the full scene catalog.
func (c *Client) Scenes(ctx context.Context) ([]Scene, error) {
	var scenes []Scene
	if err := c.do(ctx, "get scenes", http.MethodGet, "/scenes", &scenes); err != nil {
		return nil, err
	}

	return scenes, nil
}

// ExecuteScene runs the scene with the given provider ID.
func (c *Client) ExecuteScene(ctx context.Context, sceneID string) error {
	if err := c.do(ctx, "execute scene", http.MethodPost, "/scenes/"+url.PathEscape(sceneID)+"/execute", nil); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Scene executed", "scene_id", sceneID)

	return nil
}

// ExecuteSceneByName resolves name against the current catalog and runs it.
// A name that is not in the catalog is logged and skipped without error.
func (c *Client) ExecuteSceneByName(ctx context.Context, name string) error {
	if name == "" {
		return errEmptyName
	}

	scenes, err := c.Scenes(ctx)
	if err != nil {
		return err
	}

	scene, ok := findScene(scenes, name)
	if !ok {
		logger.InfoKV(ctx, "Scene not found, skipping", "scene_name", name, "catalog_size", len(scenes))

		return nil
	}

	logger.DebugKV(ctx, "Scene resolved", "scene_name", name, "scene_id", scene.SceneID)

	return c.ExecuteScene(ctx, scene.SceneID)
}

// findScene returns the first scene whose name matches exactly.
func findScene(scenes []Scene, name string) (Scene, bool) {
	for _, scene := range scenes {
		if scene.SceneName == name {
			return scene, true
		}
	}

	return Scene{}, false
}
