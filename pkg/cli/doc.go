/*
Package cli provides command-line interface utilities for the relay command.

Output Formatting:

Command results print as text or JSON. Results implementing Texter control
their text form:

	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

For long-running operations, use the progress reporter (writes to stderr
by default):

	progress := cli.NewProgressReporter(nil, "Simulating")
	progress.Start(total)
	for i := range total {
		// Do work
		progress.Update(i + 1)
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 when a budget limit rejected the call, 4 when every fallback
candidate failed.
*/
package cli
