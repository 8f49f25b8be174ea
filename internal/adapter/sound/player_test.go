package sound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandPlayerRequiresCommand(t *testing.T) {
	p := &CommandPlayer{}
	_, err := p.Play(context.Background())
	assert.Error(t, err)
}

func TestCommandPlayerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &CommandPlayer{Command: "sleep", Args: []string{"60"}}
	_, err := p.Play(ctx)
	assert.Error(t, err)
}
