package ports

// Executor runs the handlers of asynchronous commands. Go may block to apply
// backpressure but must eventually run task.
type Executor interface {
	Go(task func())
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(task func())

func (f ExecutorFunc) Go(task func()) { f(task) }
