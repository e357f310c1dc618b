package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/scheduler"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start a minimal read-eval-print loop over the Control API",
	Long:  "A conventional command-per-line REPL, not the ANSI-rendered interactive shell of the original implementation (see SPEC_FULL.md Out of scope).",
	RunE:  runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	sched, _, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	fmt.Fprintln(os.Stdout, "threadshell repl. Type 'help' for commands, 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, "threadshell> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := dispatch(sched, line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	return nil
}

func dispatch(sched *scheduler.Scheduler, line string) error {
	fields := strings.Fields(line)
	verb := fields[0]

	switch verb {
	case "help":
		printHelp()
		return nil
	case "submit":
		if len(fields) < 3 {
			return fmt.Errorf("usage: submit <priority> <command...>")
		}
		p, err := job.ParsePriority(strings.ToUpper(fields[1]))
		if err != nil {
			return err
		}
		command := strings.Join(fields[2:], " ")
		j, err := sched.Submit(command, p)
		if err != nil {
			return err
		}
		fmt.Printf("submitted job %d\n", j.ID)
		return nil
	case "submit-deps":
		if len(fields) < 4 {
			return fmt.Errorf("usage: submit-deps <priority> <dep1,dep2,...> <command...>")
		}
		p, err := job.ParsePriority(strings.ToUpper(fields[1]))
		if err != nil {
			return err
		}
		deps, err := parseDeps(fields[2])
		if err != nil {
			return err
		}
		command := strings.Join(fields[3:], " ")
		j, err := sched.SubmitWithDeps(command, p, deps)
		if err != nil {
			return err
		}
		fmt.Printf("submitted job %d (waiting on %v)\n", j.ID, deps)
		return nil
	case "submit-script":
		if len(fields) != 2 {
			return fmt.Errorf("usage: submit-script <path>")
		}
		j, err := sched.SubmitScript(fields[1])
		if err != nil {
			return err
		}
		fmt.Printf("submitted job %d from script %q\n", j.ID, fields[1])
		return nil
	case "submit-array":
		if len(fields) < 4 {
			return fmt.Errorf("usage: submit-array <priority> <count> <template...>")
		}
		p, err := job.ParsePriority(strings.ToUpper(fields[1]))
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid count %q: %w", fields[2], err)
		}
		template := strings.Join(fields[3:], " ")
		jobs, err := sched.SubmitArray(template, p, count)
		if err != nil {
			return err
		}
		fmt.Printf("submitted %d array tasks starting at job %d\n", len(jobs), jobs[0].ID)
		return nil
	case "jobs":
		for _, j := range sched.Jobs() {
			printJobLine(j)
		}
		return nil
	case "job":
		if len(fields) != 2 {
			return fmt.Errorf("usage: job <id>")
		}
		id, err := parseJobID(fields[1])
		if err != nil {
			return err
		}
		j, err := sched.Job(id)
		if err != nil {
			return err
		}
		printJobLine(j)
		return nil
	case "kill":
		return withJobID(fields, sched.Kill)
	case "suspend":
		return withJobID(fields, sched.Suspend)
	case "resume":
		return withJobID(fields, sched.Resume)
	case "priority":
		if len(fields) != 3 {
			return fmt.Errorf("usage: priority <id> <level>")
		}
		id, err := parseJobID(fields[1])
		if err != nil {
			return err
		}
		p, err := job.ParsePriority(strings.ToUpper(fields[2]))
		if err != nil {
			return err
		}
		return sched.ChangePriority(id, p)
	case "policy":
		if len(fields) != 2 {
			return fmt.Errorf("usage: policy <priority_first|shortest_job_first|round_robin|fair_share>")
		}
		return sched.SetSchedulingPolicy(fields[1])
	case "stats":
		snap := sched.SystemStats()
		fmt.Printf("submitted=%d completed=%d failed=%d killed=%d avg_wait_ms=%.1f avg_turnaround_ms=%.1f throughput/min=%.2f\n",
			snap.TotalJobsSubmitted, snap.TotalJobsCompleted, snap.TotalJobsFailed, snap.TotalJobsKilled,
			snap.AverageWaitTimeMS, snap.AverageTurnaroundTimeMS, snap.SystemThroughput)
		return nil
	case "cores":
		for i, u := range sched.CoreUtilization() {
			fmt.Printf("core %d: %.1f%%\n", i, u)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", verb)
	}
}

func withJobID(fields []string, fn func(job.ID) error) error {
	if len(fields) != 2 {
		return fmt.Errorf("usage: %s <id>", fields[0])
	}
	id, err := parseJobID(fields[1])
	if err != nil {
		return err
	}
	return fn(id)
}

func parseJobID(s string) (job.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q: %w", s, err)
	}
	return job.ID(n), nil
}

func parseDeps(s string) ([]job.ID, error) {
	parts := strings.Split(s, ",")
	out := make([]job.ID, 0, len(parts))
	for _, p := range parts {
		id, err := parseJobID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func printJobLine(j *job.Job) {
	fmt.Printf("[%d] %-12s %-8s %s\n", j.ID, j.Status, j.Priority, j.Command)
}

func printHelp() {
	fmt.Println(`commands:
  submit <priority> <command...>
  submit-deps <priority> <dep1,dep2,...> <command...>
  submit-script <path>
  submit-array <priority> <count> <template...>
  jobs
  job <id>
  kill <id>
  suspend <id>
  resume <id>
  priority <id> <level>
  policy <name>
  stats
  cores
  exit`)
}

func init() {
	rootCmd.AddCommand(replCmd)
}
