package engine

import (
	"GopherShade/internal/renderer"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// shiftBoost multiplies camera speed while Shift is held.
const shiftBoost = 2.5

var movementKeys = []struct {
	key       glfw.Key
	direction renderer.Movement
}{
	{glfw.KeyW, renderer.Forward},
	{glfw.KeyS, renderer.Backward},
	{glfw.KeyA, renderer.Left},
	{glfw.KeyD, renderer.Right},
	{glfw.KeyE, renderer.Up},
	{glfw.KeyQ, renderer.Down},
}

// moveCamera applies every held movement key. pressed reports whether a key
// is down.
func moveCamera(camera *renderer.Camera, pressed func(glfw.Key) bool, deltaTime float32) {
	if pressed(glfw.KeyLeftShift) || pressed(glfw.KeyRightShift) {
		deltaTime *= shiftBoost
	}

	for _, binding := range movementKeys {
		if pressed(binding.key) {
			camera.Move(binding.direction, deltaTime)
		}
	}
}

// mouseLook turns cursor motion into camera rotation while the right button
// is held.
type mouseLook struct {
	lastX, lastY float64
	firstMouse   bool
}

func newMouseLook() *mouseLook {
	return &mouseLook{firstMouse: true}
}

// update returns the offsets to feed ProcessMouseMovement. ok is false for
// the first sample after the button goes down or while it is up.
func (m *mouseLook) update(xpos, ypos float64, active bool) (xoffset, yoffset float32, ok bool) {
	if !active {
		m.firstMouse = true
		return 0, 0, false
	}
	if m.firstMouse {
		m.lastX, m.lastY = xpos, ypos
		m.firstMouse = false
		return 0, 0, false
	}

	xoffset = float32(xpos - m.lastX)
	yoffset = float32(m.lastY - ypos) // Reversed since y-coordinates go from bottom to top
	m.lastX, m.lastY = xpos, ypos
	return xoffset, yoffset, true
}
