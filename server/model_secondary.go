package server

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/zucenko/pathfinder/model"
	"github.com/zucenko/pathfinder/solver"
)

const HTTP_SUCCESS = 200
const HTTP_ACCEPTED = 202
const HTTP_BAD_REQUEST = 400
const HTTP_CONFLICT = 409
const HTTP_SERVER_ERR = 503

// maxPending bounds the queued change batch; past it a full resync is cheaper.
const maxPending = 1 << 16

// maxMapBytes fits the largest map Grid.Load accepts: one byte per cell plus
// line ends and the header.
const maxMapBytes = 2*model.MaxCells + 1<<10

func (ss SearchState) Name() string {
	switch ss {
	case SS_IDLE:
		return "SS_IDLE"
	case SS_RUNNING:
		return "SS_RUNNING"
	default:
		return fmt.Sprintf("n/a:%d", ss)
	}
}

func (ws WatchSessionState) Name() string {
	switch ws {
	case WS_NEW:
		return "NEW"
	case WS_WATCH:
		return "WATCH"
	case WS_RESYNC:
		return "RESYNC"
	case WS_OVER:
		return "OVER"
	default:
		return "N/A"
	}
}

// errorCode maps package sentinels to HTTP status codes.
func errorCode(err error) int {
	switch errors.Cause(err) {
	case model.ErrFormat, model.ErrOutOfRange, solver.ErrInvalidArgument:
		return HTTP_BAD_REQUEST
	case ErrSearchRunning:
		return HTTP_CONFLICT
	default:
		return HTTP_SERVER_ERR
	}
}

type searchResponse struct {
	RunID   string        `json:"run_id,omitempty"`
	Running bool          `json:"running"`
	State   string        `json:"state"`
	Last    *model.Status `json:"last,omitempty"`
	Error   string        `json:"error,omitempty"`
}
