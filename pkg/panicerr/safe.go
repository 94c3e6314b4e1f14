package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/lettatool/pkg/cerr"
)

// Run calls fn and turns a panic inside it into an Internal error, so a
// command always ends with an exit status instead of a crash dump.
func Run(ctx context.Context, fn func(context.Context) error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn(ctx)
	})
	if err != nil {
		return err
	}
	if r := catcher.Recovered(); r != nil {
		e := cerr.NewError(cerr.Internal, "unexpected failure", r.AsError())
		e.Stack = string(r.Stack)
		return e
	}
	return nil
}
