package sound

import (
	"context"
	"fmt"
	"os/exec"
)

// Player acquires a looping playback resource. A Handle is live until Stop.
type Player interface {
	Play(ctx context.Context) (Handle, error)
}

type Handle interface {
	Stop()
}

// CommandPlayer delegates playback to a system player process (for example
// `ffplay -loop 0 -nodisp -autoexit=0 alert.mp3`). Looping is the command's
// responsibility; the configured invocation must not exit on its own.
type CommandPlayer struct {
	Command string
	Args    []string
}

func (p *CommandPlayer) Play(ctx context.Context) (Handle, error) {
	if p.Command == "" {
		return nil, fmt.Errorf("no player command configured")
	}

	// Bound to ctx so session teardown reaps a playing process even if
	// Stop is never reached.
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player: %w", err)
	}

	// Reap the process whenever it exits.
	go cmd.Wait()

	return &processHandle{cmd: cmd}, nil
}

type processHandle struct {
	cmd *exec.Cmd
}

func (h *processHandle) Stop() {
	if h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
}
