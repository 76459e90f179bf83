// Package symtrace prints every TAC a pass emits when NEVEC_TRACE=1 is
// set in the environment, and attaches stage-tagged stack traces to
// pipeline errors so a Fault can be traced back to the stage that
// raised it. It costs nothing when the variable is unset.
package symtrace

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/neve-lang/nevec/internal/ir"
)

// Enabled reports whether tracing was requested for this process.
// Checked once at package init since the environment doesn't change
// mid-run.
var Enabled = os.Getenv("NEVEC_TRACE") == "1"

// Tac prints tac to stderr, tagged with stage, when tracing is
// enabled.
func Tac(stage string, tac *ir.Tac) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s\n", stage, tac)
}

// Wrap attaches a stack trace to err, identifying which stage produced
// it. Used at pass boundaries so a Fault surfaced from deep inside
// optimize or emit still carries its origin.
func Wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "symtrace: %s", stage)
}
