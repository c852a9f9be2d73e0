package runner

import "time"

// Worker process constants
const (
	// ipcChildFD is the descriptor number the IPC pipe gets in a worker:
	// the first entry of exec.Cmd.ExtraFiles.
	ipcChildFD = 3

	// waitDelay bounds how long a worker's output pipes may stay open after
	// it exits or is killed.
	waitDelay = 5 * time.Second

	// maxRecordBytes bounds a single IPC line.
	maxRecordBytes = 64 * 1024 * 1024

	// MaxReasonableConcurrency is the level above which a warning is logged
	MaxReasonableConcurrency = 32
)
