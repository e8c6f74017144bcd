package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"GopherShade/internal/logger"
	"GopherShade/internal/renderer"
	"GopherShade/internal/renderer/opengl"
	"GopherShade/internal/scene"
	"GopherShade/internal/texture"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Viewer shows a scene in a window using the OpenGL renderer. WASD/QE move
// the camera, dragging with the right mouse button looks around, a left click
// logs the model under the cursor and Escape closes the window. When
// ScenePath is set the scene is rebuilt whenever the file changes.
type Viewer struct {
	Width     int    // Window size; 0 uses the scene file size
	Height    int    //
	ScenePath string // Empty shows the built-in scene
	Title     string

	textures *texture.Manager
	window   *glfw.Window
	rend     *opengl.OpenGLRenderer
	scene    *renderer.Scene
	look     *mouseLook
	reload   chan struct{}
}

func NewViewer(width, height int, scenePath string) *Viewer {
	return &Viewer{
		Width:     width,
		Height:    height,
		ScenePath: scenePath,
		Title:     "GopherShade",
		textures:  texture.NewManager(texture.DefaultLoadOptions()),
		rend:      opengl.NewOpenGLRenderer(),
		look:      newMouseLook(),
		reload:    make(chan struct{}, 1),
	}
}

// Run opens the window and renders until it is closed or ctx is done. GL calls
// must stay on one OS thread, so Run locks the calling goroutine to it.
func (v *Viewer) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	file, baseDir, err := v.loadFile()
	if err != nil {
		return err
	}
	if v.Width <= 0 || v.Height <= 0 {
		v.Width, v.Height = file.Size()
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("could not initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	v.window, err = glfw.CreateWindow(v.Width, v.Height, v.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("could not create glfw window: %w", err)
	}
	defer v.window.Destroy()

	v.window.MakeContextCurrent()
	glfw.SwapInterval(1)

	fbWidth, fbHeight := v.window.GetFramebufferSize()
	if err := v.rend.Init(int32(fbWidth), int32(fbHeight)); err != nil {
		return err
	}
	defer v.rend.Cleanup()

	if err := v.setScene(ctx, file, baseDir); err != nil {
		return err
	}

	v.window.SetKeyCallback(v.keyCallback)
	v.window.SetCursorPosCallback(v.mouseCallback)
	v.window.SetMouseButtonCallback(v.mouseButtonCallback)
	v.window.SetFramebufferSizeCallback(v.resizeCallback)

	watchDone := v.startWatcher(ctx)
	defer watchDone()

	logger.Log.Info("Viewer started",
		zap.Int("width", v.Width),
		zap.Int("height", v.Height),
		zap.String("scene", v.sceneName()))

	v.renderLoop(ctx)
	scene.Release(v.scene, v.textures)
	return nil
}

func (v *Viewer) renderLoop(ctx context.Context) {
	lastTime := glfw.GetTime()
	pressed := func(key glfw.Key) bool { return v.window.GetKey(key) == glfw.Press }

	for !v.window.ShouldClose() && ctx.Err() == nil {
		currentTime := glfw.GetTime()
		deltaTime := float32(currentTime - lastTime)
		lastTime = currentTime

		select {
		case <-v.reload:
			v.reloadScene(ctx)
		default:
		}

		moveCamera(v.scene.Camera, pressed, deltaTime)

		v.rend.Render(v.scene)
		v.window.SwapBuffers()
		glfw.PollEvents()
	}
}

func (v *Viewer) loadFile() (*scene.File, string, error) {
	if v.ScenePath == "" {
		file, err := scene.Default()
		return file, "", err
	}
	file, err := scene.LoadFile(v.ScenePath)
	if err != nil {
		return nil, "", err
	}
	return file, filepath.Dir(v.ScenePath), nil
}

// setScene builds file and uploads it, sized to the current framebuffer.
func (v *Viewer) setScene(ctx context.Context, file *scene.File, baseDir string) error {
	s, err := scene.Build(ctx, file, baseDir, v.textures)
	if err != nil {
		return err
	}
	fbWidth, fbHeight := v.window.GetFramebufferSize()
	s.Camera.SetViewport(fbWidth, fbHeight)

	if err := v.rend.Load(s); err != nil {
		scene.Release(s, v.textures)
		return err
	}
	scene.Release(v.scene, v.textures)
	v.scene = s
	return nil
}

// reloadScene keeps the current scene when the new file does not build.
func (v *Viewer) reloadScene(ctx context.Context) {
	file, baseDir, err := v.loadFile()
	if err == nil {
		err = v.setScene(ctx, file, baseDir)
	}
	if err != nil {
		logger.Log.Error("Scene reload failed", zap.String("scene", v.sceneName()), zap.Error(err))
		if v.rend.Load(v.scene) != nil {
			logger.Log.Error("Could not restore previous scene")
		}
		return
	}
	v.textures.LogStats()
	logger.Log.Info("Scene reloaded", zap.String("scene", v.sceneName()))
}

// startWatcher watches the scene file when there is one. The returned func
// stops the watcher and waits for it.
func (v *Viewer) startWatcher(ctx context.Context) func() {
	if v.ScenePath == "" {
		return func() {}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := scene.Watch(watchCtx, v.ScenePath, func() {
			select {
			case v.reload <- struct{}{}:
			default:
			}
		})
		if err != nil {
			logger.Log.Warn("Scene hot reload disabled", zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (v *Viewer) sceneName() string {
	if v.ScenePath == "" {
		return "default"
	}
	return v.ScenePath
}

func (v *Viewer) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// Mouse callback function
func (v *Viewer) mouseCallback(w *glfw.Window, xpos, ypos float64) {
	active := w.GetAttrib(glfw.Focused) == glfw.True && w.GetMouseButton(glfw.MouseButtonRight) == glfw.Press
	if xoffset, yoffset, ok := v.look.update(xpos, ypos, active); ok {
		v.scene.Camera.ProcessMouseMovement(xoffset, yoffset, true)
	}
}

func (v *Viewer) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft || action != glfw.Press {
		return
	}
	x, y := w.GetCursorPos()
	width, height := w.GetSize()
	ray := renderer.ScreenToRay(v.scene.Camera, float32(x), float32(y), width, height)
	if hit, ok := v.scene.Pick(ray); ok {
		logger.Log.Info("Picked model",
			zap.String("model", hit.Model.Name),
			zap.Int("triangle", hit.Triangle),
			zap.Float32("distance", hit.Distance))
	}
}

func (v *Viewer) resizeCallback(w *glfw.Window, width, height int) {
	if width == 0 || height == 0 {
		return // Minimized
	}
	v.rend.Resize(int32(width), int32(height))
	v.scene.Camera.SetViewport(width, height)
}
