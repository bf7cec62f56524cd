package chipvm

import (
	"strings"

	"github.com/pkg/errors"
)

// Quirks toggles behavioral variants of the documented opcodes found
// across historical interpreters. The zero value is the reference
// behavior.
type Quirks uint8

const (
	// QuirkVfReset makes 8xy1, 8xy2 and 8xy3 clear VF.
	QuirkVfReset Quirks = 1 << iota
	// QuirkShiftUsesVy makes 8xy6 and 8xyE shift Vy into Vx.
	QuirkShiftUsesVy
	// QuirkJumpUsesVx makes Bxnn jump to xnn + Vx.
	QuirkJumpUsesVx
	// QuirkIndexUnchanged makes Fx55 and Fx65 leave I untouched.
	QuirkIndexUnchanged
	// QuirkWrapSprites wraps sprite pixels around the screen edges instead
	// of addressing the display buffer linearly.
	QuirkWrapSprites
	// QuirkFlagFirst makes the 8xy_ arithmetic write VF before Vx, so
	// with X=F the result overwrites the flag.
	QuirkFlagFirst
)

func (q Quirks) Has(flag Quirks) bool {
	return q&flag != 0
}

var quirkNames = map[string]Quirks{
	"vfreset":   QuirkVfReset,
	"shift":     QuirkShiftUsesVy,
	"jump":      QuirkJumpUsesVx,
	"index":     QuirkIndexUnchanged,
	"wrap":      QuirkWrapSprites,
	"flagfirst": QuirkFlagFirst,
}

// ParseQuirks reads a comma separated list of quirk names, as taken by
// the -quirks flag of the binaries. An empty string is no quirks.
func ParseQuirks(s string) (Quirks, error) {
	var q Quirks
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		flag, ok := quirkNames[name]
		if !ok {
			return 0, errors.Errorf("unknown quirk %q", name)
		}
		q |= flag
	}

	return q, nil
}
