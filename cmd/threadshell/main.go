// Command threadshell is the CLI front-end (SPEC_FULL.md §10): a thin
// Cobra-based caller of the scheduler's Control API. It implements no
// scheduling logic of its own.
package main

func main() {
	Execute()
}
