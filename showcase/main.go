// Showcase app: a task list where every task carries a removal callback.
// Completing a task removes it from the tree on the next rebuild, and the
// callback fires exactly once per removed task. The inspection server runs
// alongside so `arbor tree`, `arbor entries` and `arbor watch` have
// something to talk to.
package main

import (
	"fmt"
	"time"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/inspect"
	"github.com/go-drift/arbor/pkg/lifecycle"
)

// Task is one entry in the list. The ID is its identity across rebuilds.
type Task struct {
	ID    string
	Title string
}

// TaskRow renders one task.
type TaskRow struct {
	core.StatelessBase
	Task Task
}

func (r TaskRow) Key() any { return r.Task.ID }

func (r TaskRow) Build(core.BuildContext) core.Widget { return nil }

// TaskList renders the whole list, binding a removal callback to each row.
type TaskList struct {
	core.StatelessBase
	Tasks     []Task
	OnRemoved func(Task)
}

func (l TaskList) Build(core.BuildContext) core.Widget {
	children := make([]core.Widget, 0, len(l.Tasks))
	for _, task := range l.Tasks {
		task := task
		children = append(children, lifecycle.OnRemove{
			Do:    func() { l.OnRemoved(task) },
			Tag:   lifecycle.CallSite(),
			Child: TaskRow{Task: task},
		})
	}
	return core.Group{Children: children}
}

func main() {
	tasks := []Task{
		{ID: "write-docs", Title: "Write the docs"},
		{ID: "fix-flaky-test", Title: "Fix the flaky test"},
		{ID: "ship-release", Title: "Ship the release"},
	}

	owner := core.NewBuildOwner()

	build := func(current []Task) core.Widget {
		return TaskList{
			Tasks: current,
			OnRemoved: func(task Task) {
				fmt.Printf("done: %s\n", task.Title)
			},
		}
	}

	root := core.MountRoot(build(tasks), owner)

	server := inspect.NewServer(inspect.Options{
		Root: func() core.Element { return root },
	})
	port, err := server.Start(7878)
	if err != nil {
		fmt.Printf("inspect server unavailable: %v\n", err)
	} else {
		fmt.Printf("inspecting on http://localhost:%d\n", port)
		defer server.Stop()
	}
	stopMetrics := inspect.ObserveRegistry(lifecycle.Shared())
	defer stopMetrics()

	// Complete one task per tick until the list is empty.
	for len(tasks) > 0 {
		time.Sleep(2 * time.Second)
		tasks = tasks[1:]
		root.Update(build(tasks))
		owner.FlushBuild()
	}

	fmt.Println("all tasks done")
}
