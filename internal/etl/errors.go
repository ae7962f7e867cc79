package etl

import "errors"

// Failure kinds. Everything except ErrCheckpointIO aborts a run.
var (
	ErrConnectivity  = errors.New("connectivity error")
	ErrSchemaInstall = errors.New("schema install error")
	ErrExtraction    = errors.New("extraction error")
	ErrDelivery      = errors.New("delivery error")
	ErrCheckpointIO  = errors.New("checkpoint io error")
)
