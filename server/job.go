package server

// RunningJob is a handle on a background task with an orderly shutdown:
// RequestStop asks it to wind down, AwaitStop blocks until it has.
type RunningJob struct {
	stop   chan struct{}
	closed chan struct{}
}

func (job *RunningJob) RequestStop() {
	close(job.stop)
}

func (job *RunningJob) AwaitStop() {
	<-job.closed
}

func SpawnJob(start func(), shutdown func()) RunningJob {
	stop := make(chan struct{})
	closed := make(chan struct{})
	go func() {
		<-stop
		shutdown()
		close(closed)
	}()
	go start()
	return RunningJob{stop: stop, closed: closed}
}

// CombineJobs groups jobs under one handle. Stops are requested for all
// jobs before any is awaited, so they shut down in parallel.
func CombineJobs(jobs ...RunningJob) RunningJob {
	start := func() {}
	shutdown := func() {
		for _, job := range jobs {
			job.RequestStop()
		}
		for _, job := range jobs {
			job.AwaitStop()
		}
	}
	return SpawnJob(start, shutdown)
}
