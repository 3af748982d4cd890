package main

import (
	"flag"
	"fmt"
	"os"

	"latchkey/pkg/buffer"
	"latchkey/pkg/concurrency/lock"
	"latchkey/pkg/primitives"
	"latchkey/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	verbose := flag.Bool("v", false, "log lock manager events to stderr")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.Disabled)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	program := tea.NewProgram(ui.NewModel(deadlockScenario), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "inspector failed: %v\n", err)
		os.Exit(1)
	}
}

// deadlockScenario drives two tables and three transactions into a
// deadlock, detects it, rolls the victim back and hands the freed locks
// to whichever waiters can take them; a waiter that still conflicts
// stays queued.
func deadlockScenario() (*lock.Manager, []ui.Step) {
	bm := buffer.NewManager()
	manager := lock.NewManager(bm)

	orders := primitives.NewTableID(0)
	customers := primitives.NewTableID(1)
	for _, reg := range []struct {
		table primitives.TableID
		path  primitives.Filepath
	}{
		{orders, "data/orders.tbl"},
		{customers, "data/customers.tbl"},
	} {
		source := reg.path.Hash()
		if err := bm.AddSource(source, bm.AllocatePage()); err != nil {
			panic(err)
		}
		if !manager.RegisterTable(reg.table, source) {
			panic("table registration failed")
		}
	}

	t1 := primitives.NewTransactionID()
	t2 := primitives.NewTransactionID()
	t3 := primitives.NewTransactionID()
	manager.RegisterTransaction(t1, 5)
	manager.RegisterTransaction(t2, 5)
	manager.RegisterTransaction(t3, 8)

	acquire := func(trans primitives.TransactionID, target lock.LockTarget) ui.Event {
		result, ok := manager.AcquireLock(trans, target)
		switch {
		case !ok:
			return ui.Event{Text: fmt.Sprintf("%v: acquire %v rejected", trans, target), Kind: ui.EventVictim}
		case result.Blocked:
			return ui.Event{Text: fmt.Sprintf("%v: blocked on %v", trans, target), Kind: ui.EventBlocked}
		default:
			return ui.Event{Text: fmt.Sprintf("%v: granted %v", trans, target), Kind: ui.EventGrant}
		}
	}

	var verdict lock.DeadlockInfo

	steps := []ui.Step{
		{Label: fmt.Sprintf("%v takes %v exclusively", t1, orders), Run: func() ui.Event {
			return acquire(t1, lock.NewTableTarget(orders, lock.Exclusive))
		}},
		{Label: fmt.Sprintf("%v takes %v exclusively", t2, customers), Run: func() ui.Event {
			return acquire(t2, lock.NewTableTarget(customers, lock.Exclusive))
		}},
		{Label: fmt.Sprintf("%v wants to read %v", t3, orders), Run: func() ui.Event {
			return acquire(t3, lock.NewTableTarget(orders, lock.Shared))
		}},
		{Label: fmt.Sprintf("%v wants %v too", t1, customers), Run: func() ui.Event {
			return acquire(t1, lock.NewTableTarget(customers, lock.Exclusive))
		}},
		{Label: fmt.Sprintf("%v wants %v too, closing the cycle", t2, orders), Run: func() ui.Event {
			return acquire(t2, lock.NewTableTarget(orders, lock.Exclusive))
		}},
		{Label: "detect deadlocks", Run: func() ui.Event {
			verdict = manager.DetectDeadlock()
			if len(verdict.Rollbacks) == 0 {
				return ui.Event{Text: "no deadlock found", Kind: ui.EventInfo}
			}
			return ui.Event{Text: fmt.Sprintf("deadlock: victims %v", verdict.Rollbacks), Kind: ui.EventVictim}
		}},
		{Label: "roll the victims back", Run: func() ui.Event {
			for _, victim := range verdict.Rollbacks {
				if !manager.Rollback(victim) {
					return ui.Event{Text: fmt.Sprintf("rollback of %v failed", victim), Kind: ui.EventVictim}
				}
			}
			return ui.Event{Text: fmt.Sprintf("rolled back %v", verdict.Rollbacks), Kind: ui.EventInfo}
		}},
		{Label: "hand freed locks to waiters", Run: func() ui.Event {
			var granted []string
			for {
				picked, _ := manager.PickTransaction()
				if !picked.IsValid() {
					break
				}
				granted = append(granted, picked.String())
			}
			if len(granted) == 0 {
				return ui.Event{Text: "nobody was grantable", Kind: ui.EventInfo}
			}
			return ui.Event{Text: "granted: " + fmt.Sprint(granted), Kind: ui.EventGrant}
		}},
	}

	return manager, steps
}
