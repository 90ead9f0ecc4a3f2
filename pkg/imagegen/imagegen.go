// Package imagegen is the consumed image-synthesis capability. The
// engine fires prompts and relies on no return contract.
package imagegen

// Renderer accepts an image prompt for asynchronous synthesis and
// display. Implementations must never block command processing.
type Renderer interface {
	Display(promptText string)
}

// Noop discards all prompts. Used when image synthesis is disabled.
type Noop struct{}

var _ Renderer = Noop{}

func (Noop) Display(promptText string) {}
