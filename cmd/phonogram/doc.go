// Command phonogram is the CLI entry point for submitting works, running the
// processing daemon, and managing the registration pipeline.
package main
