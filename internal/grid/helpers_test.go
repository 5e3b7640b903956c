package grid

import (
	"io"
	"log/slog"

	"github.com/drake/vidwall/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func opKinds(ops []domain.ReconcileOp) (removes, moves, adds int) {
	for _, op := range ops {
		switch op.Kind {
		case domain.OpRemove:
			removes++
		case domain.OpMove:
			moves++
		case domain.OpAdd:
			adds++
		}
	}
	return
}
