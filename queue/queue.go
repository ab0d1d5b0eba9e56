package queue

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfx"
)

// FlushError reports the first command that failed during a flush. It
// unwraps to the backend error, so errors.Is matching against the gfx
// sentinels works through it.
type FlushError struct {
	// Index is the command's position in the flushed batch.
	Index int
	// Command is the command that failed.
	Command Command
	// Err is the backend error.
	Err error
}

// Error implements the error interface.
func (e *FlushError) Error() string {
	return fmt.Sprintf("queue: flush failed at command %d (%v): %v", e.Index, e.Command.Type(), e.Err)
}

// Unwrap returns the backend error.
func (e *FlushError) Unwrap() error { return e.Err }

// RenderQueue is a thread-safe, strictly-ordered command buffer.
//
// Any number of goroutines may Enqueue concurrently; each call appends
// under a mutex. Commands enqueued from the same goroutine flush in the
// order issued. The interleaving of commands from different goroutines is
// whatever order their Enqueue calls won the lock; producers needing
// strict cross-goroutine ordering must serialize themselves.
//
// Flush is meant to be called by one goroutine, the frame driver, which
// performs all backend calls.
type RenderQueue struct {
	mu       sync.Mutex
	commands []Command
}

// New creates an empty render queue.
func New() *RenderQueue {
	return &RenderQueue{}
}

// Enqueue appends commands to the queue.
func (q *RenderQueue) Enqueue(commands ...Command) {
	q.mu.Lock()
	q.commands = append(q.commands, commands...)
	q.mu.Unlock()
}

// Len returns the number of pending commands.
func (q *RenderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Clear discards all pending commands without executing them.
func (q *RenderQueue) Clear() {
	q.mu.Lock()
	q.commands = nil
	q.mu.Unlock()
}

// Flush drains the queue and replays every command against the backend,
// in enqueue order. It is fail-fast: the first backend error aborts the
// remaining commands and is returned wrapped in a *FlushError; commands
// already executed are not rolled back. Flushing an empty queue is a
// no-op returning nil, with zero backend calls issued.
//
// Commands enqueued while a flush is running land in the next batch.
func (q *RenderQueue) Flush(b gfx.Backend) error {
	q.mu.Lock()
	batch := q.commands
	q.commands = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	gfx.Logger().Debug("queue: flushing", "commands", len(batch))
	for i, cmd := range batch {
		if err := cmd.apply(b); err != nil {
			return &FlushError{Index: i, Command: cmd, Err: err}
		}
	}
	return nil
}

// SetMaterial records the material's shader, uniforms, and fixed-function
// state as one SetShader command. The uniform set is cloned, so later
// material edits do not affect the recorded command.
func (q *RenderQueue) SetMaterial(m *gfx.Material) {
	q.Enqueue(SetShader{
		Shader:   m.Shader().ID(),
		Uniforms: m.Uniforms().Clone(),
		Blend:    m.BlendState(),
		Culling:  m.CullingMode(),
		Scissor:  m.ScissorMode(),
	})
}

// DrawMesh records a draw of the wrapped mesh with its current counts.
func (q *RenderQueue) DrawMesh(m *gfx.Mesh, topology gfx.PrimitiveTopology) {
	vertexCount, indexCount := m.Counts()
	q.Enqueue(DrawMesh{
		Mesh:        m.ID(),
		Topology:    topology,
		VertexCount: vertexCount,
		IndexCount:  indexCount,
	})
}

// BlitToDisplayTarget records switching to the default framebuffer, an
// optional clear, and a blit of the source target onto the display.
func (q *RenderQueue) BlitToDisplayTarget(source *gfx.RenderTarget, filter gfx.TextureFilter, clearColor *gfx.Color) {
	commands := make([]Command, 0, 3)
	commands = append(commands, SetRenderTargetToDisplay{})
	if clearColor != nil {
		commands = append(commands, ClearColorBuffer{Color: *clearColor})
	}
	commands = append(commands, BlitToDisplay{Source: source.ID(), Filter: filter})
	q.Enqueue(commands...)
}
