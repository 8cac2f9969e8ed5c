package ui

import "github.com/theapemachine/ukg/pkg/types"

// resultMsg carries a finished query back into the update loop.
type resultMsg struct {
	query  string
	result types.QueryResult
}
