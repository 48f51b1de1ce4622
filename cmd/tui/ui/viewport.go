package ui

import "github.com/charmbracelet/bubbles/viewport"

// ensureViewportSize resizes the detail viewport preserving YOffset.
// It avoids a full reset of scrolling when size hasn't changed.
func (m *TuiModel) ensureViewportSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if m.vp.Width != width || m.vp.Height != height {
		oldOff := m.vp.YOffset
		m.vp = viewport.New(width, height)
		m.vp.YOffset = oldOff
	}
}
