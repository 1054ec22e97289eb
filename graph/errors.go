package graph

import "errors"

var (
	ErrEmptyNodeID     = errors.New("node id is empty")
	ErrNodeExists      = errors.New("node already exists")
	ErrNodeNotFound    = errors.New("node not found")
	ErrUnknownNodeType = errors.New("unknown node type")
)
