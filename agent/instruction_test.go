package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
)

func TestInstruction_Static(t *testing.T) {
	ins := NewInstructionFromText("You manage document corpora.")
	assert.True(t, ins.IsStatic())

	text, err := ins.Resolve(core.NewSession("s1"))
	require.NoError(t, err)
	assert.Equal(t, "You manage document corpora.", text)
}

func TestInstruction_Func(t *testing.T) {
	ins := NewInstructionFromFunc(func(s *core.Session) (string, error) {
		return "session " + s.ID, nil
	})
	assert.False(t, ins.IsStatic())

	text, err := ins.Resolve(core.NewSession("s1"))
	require.NoError(t, err)
	assert.Equal(t, "session s1", text)
}

func TestInstruction_TemplateInterpolatesState(t *testing.T) {
	sess := core.NewSession("s1")
	sess.SetState("current_corpus", "engineering-docs")

	ins := NewInstructionFromTemplate("The current corpus is {{.current_corpus}}.")

	text, err := ins.Resolve(sess)
	require.NoError(t, err)
	assert.Equal(t, "The current corpus is engineering-docs.", text)
}

func TestInstruction_TemplateWithDefault(t *testing.T) {
	ins := NewInstructionFromTemplate(`Corpus: {{default "none selected" .current_corpus}}`)

	text, err := ins.Resolve(core.NewSession("s1"))
	require.NoError(t, err)
	assert.Equal(t, "Corpus: none selected", text)
}

func TestInstruction_ZeroValueResolvesEmpty(t *testing.T) {
	var ins Instruction

	text, err := ins.Resolve(core.NewSession("s1"))
	require.NoError(t, err)
	assert.Empty(t, text)
}
