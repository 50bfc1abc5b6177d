package download

import "spinefetch/internal/tasks"

// Progress receives one tick per settled task. Calls come from a single
// goroutine.
type Progress interface {
	Start(total int)
	Tick(done, total int, task tasks.Task, err error)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int) {}

func (nopProgress) Tick(int, int, tasks.Task, error) {}

func (nopProgress) Finish() {}
