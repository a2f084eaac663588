package handlers

import (
	"github.com/imamik/hostkit/internal/process"
	"github.com/imamik/hostkit/internal/util/filter"
)

// ProcessFind prints the processes whose command line contains any of the
// patterns. With regex set, patterns are regular expressions that must
// match the whole command line.
func ProcessFind(env *Env, patterns []string, regex bool) error {
	if !regex {
		procs, err := env.Procs.FindAny(patterns...)
		if err != nil {
			return err
		}
		printProcesses(env, procs)
		return nil
	}

	set, err := filter.New(patterns...)
	if err != nil {
		return err
	}
	procs, err := env.Procs.FindMatching(set)
	if err != nil {
		return err
	}
	printProcesses(env, procs)
	return nil
}

// ProcessKill kills every process whose command line contains substring. A
// dry run only lists them.
func ProcessKill(env *Env, substring string) error {
	if !env.Context.ReallyExecute {
		procs, err := env.Procs.Find(substring)
		if err != nil {
			return err
		}
		for _, p := range procs {
			env.printf("[dry-run] kill %d\t%s\n", p.PID, p.Command)
		}
		return nil
	}

	killed, err := env.Procs.Kill(substring)
	for _, p := range killed {
		env.printf("killed %d\t%s\n", p.PID, p.Command)
	}
	return err
}

func printProcesses(env *Env, procs []process.Process) {
	for _, p := range procs {
		env.printf("%d\t%s\n", p.PID, p.Command)
	}
}
