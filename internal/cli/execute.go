package cli

import (
	"context"
	"io"
)

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr, or on stdout as a JSON response when
// --format json is in effect.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{LogWriter: stderr}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := opts.Close(); err == nil && closeErr != nil {
		err = WrapExitError(ExitFailure, "failed to close database", closeErr)
	}
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}
