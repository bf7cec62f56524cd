package chipvm_test

import (
	"testing"

	"github.com/guslan/chipvm"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseQuirks(t *testing.T) {
	q, err := chipvm.ParseQuirks("")
	assert.NoError(t, err)
	assert.Equal(t, chipvm.Quirks(0), q)

	q, err = chipvm.ParseQuirks("vfreset, Wrap,")
	assert.NoError(t, err)
	assert.Equal(t, chipvm.QuirkVfReset|chipvm.QuirkWrapSprites, q)
	assert.True(t, q.Has(chipvm.QuirkWrapSprites))
	assert.False(t, q.Has(chipvm.QuirkJumpUsesVx))

	q, err = chipvm.ParseQuirks("FlagFirst")
	assert.NoError(t, err)
	assert.Equal(t, chipvm.QuirkFlagFirst, q)

	_, err = chipvm.ParseQuirks("shift,cosmac")
	assert.Error(t, err, `unknown quirk "cosmac"`)
}
