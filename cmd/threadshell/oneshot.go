package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/scheduler"
)

// The commands below give every Control API operation named in
// SPEC_FULL.md §10 its own Cobra subcommand, one per invocation, the way
// readyvibes-Legion/cmd/cluster_cli.go maps one subcommand per cluster
// operation. The scheduler keeps no state across process restarts (the
// spec's persistence Non-goal), so each invocation bootstraps its own
// scheduler: submit* commands run their job(s) to completion before
// exiting and report the outcome; the rest act on the scheduler that same
// invocation just constructed. Chaining several operations against one
// live scheduler is what the repl subcommand is for.

var submitCmd = &cobra.Command{
	Use:   "submit <priority> <command...>",
	Short: "Submit a single job and wait for it to finish",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			p, err := job.ParsePriority(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			j, err := sched.Submit(strings.Join(args[1:], " "), p)
			if err != nil {
				return err
			}
			return awaitAndPrint(sched, j.ID)
		})
	},
}

var submitDepsCmd = &cobra.Command{
	Use:   "submit-deps <priority> <dep1,dep2,...> <command...>",
	Short: "Submit a job that waits on other jobs, then wait for it to finish",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			p, err := job.ParsePriority(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			deps, err := parseDeps(args[1])
			if err != nil {
				return err
			}
			j, err := sched.SubmitWithDeps(strings.Join(args[2:], " "), p, deps)
			if err != nil {
				return err
			}
			return awaitAndPrint(sched, j.ID)
		})
	},
}

var submitScriptCmd = &cobra.Command{
	Use:   "submit-script <path>",
	Short: "Submit a job-script file and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			j, err := sched.SubmitScript(args[0])
			if err != nil {
				return err
			}
			return awaitAndPrint(sched, j.ID)
		})
	},
}

var submitArrayCmd = &cobra.Command{
	Use:   "submit-array <priority> <count> <template...>",
	Short: "Submit an array job and wait for every task to finish",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			p, err := job.ParsePriority(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}
			jobs, err := sched.SubmitArray(strings.Join(args[2:], " "), p, count)
			if err != nil {
				return err
			}
			for _, j := range jobs {
				if err := awaitAndPrint(sched, j.ID); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List every job the scheduler has seen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			for _, j := range sched.Jobs() {
				printJobLine(j)
			}
			return nil
		})
	},
}

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show a single job by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			j, err := sched.Job(id)
			if err != nil {
				return err
			}
			printJobLine(j)
			return nil
		})
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <id>",
	Short: "Kill a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			return withJobID([]string{"kill", args[0]}, sched.Kill)
		})
	},
}

var suspendCmd = &cobra.Command{
	Use:   "suspend <id>",
	Short: "Suspend a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			return withJobID([]string{"suspend", args[0]}, sched.Suspend)
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a suspended job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			return withJobID([]string{"resume", args[0]}, sched.Resume)
		})
	},
}

var priorityCmd = &cobra.Command{
	Use:   "priority <id> <level>",
	Short: "Change a pending job's priority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			p, err := job.ParsePriority(strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			return sched.ChangePriority(id, p)
		})
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy <name>",
	Short: "Switch the active scheduling policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			return sched.SetSchedulingPolicy(args[0])
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate scheduler statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			snap := sched.SystemStats()
			fmt.Printf("submitted=%d completed=%d failed=%d killed=%d avg_wait_ms=%.1f avg_turnaround_ms=%.1f throughput/min=%.2f\n",
				snap.TotalJobsSubmitted, snap.TotalJobsCompleted, snap.TotalJobsFailed, snap.TotalJobsKilled,
				snap.AverageWaitTimeMS, snap.AverageTurnaroundTimeMS, snap.SystemThroughput)
			return nil
		})
	},
}

var coresCmd = &cobra.Command{
	Use:   "cores",
	Short: "Print per-core utilization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(func(sched *scheduler.Scheduler) error {
			for i, u := range sched.CoreUtilization() {
				fmt.Printf("core %d: %.1f%%\n", i, u)
			}
			return nil
		})
	},
}

// withScheduler bootstraps a scheduler for the lifetime of a single
// one-shot subcommand invocation, runs fn against it, and drains it on the
// way out.
func withScheduler(fn func(*scheduler.Scheduler) error) error {
	sched, _, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	return fn(sched)
}

// awaitAndPrint polls until a submitted job reaches a terminal state, then
// prints its outcome. A one-shot submit command has no daemon to hand the
// job off to, so "submit and report the result" is its whole contract.
func awaitAndPrint(sched *scheduler.Scheduler, id job.ID) error {
	for {
		j, err := sched.Job(id)
		if err != nil {
			return err
		}
		if j.Status.IsTerminal() {
			printJobLine(j)
			if j.Status == job.Failed {
				return fmt.Errorf("job %d failed with exit code %d", j.ID, j.ExitCode)
			}
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func init() {
	rootCmd.AddCommand(submitCmd, submitDepsCmd, submitScriptCmd, submitArrayCmd,
		jobsCmd, jobCmd, killCmd, suspendCmd, resumeCmd, priorityCmd, policyCmd,
		statsCmd, coresCmd)
}
