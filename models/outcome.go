package models

import (
	"encoding/json"
	"time"
)

// FailureKind classifies why a single node call failed.
type FailureKind string

const (
	FailTimeout    FailureKind = "timeout"
	FailConnection FailureKind = "connection_error"
	FailHTTP       FailureKind = "http_error"
	FailInvalid    FailureKind = "invalid"
)

// Outcome is the result of exactly one call against one node: either a
// successful response body with its latency, or a classified failure.
// It is fully populated on construction; callers never see a half-built
// outcome.
type Outcome struct {
	OK      bool            `json:"ok"`
	Body    json.RawMessage `json:"body,omitempty"`
	Latency time.Duration   `json:"-"`
	Kind    FailureKind     `json:"kind,omitempty"`
	Status  int             `json:"status,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

func Success(body json.RawMessage, latency time.Duration) Outcome {
	return Outcome{OK: true, Body: body, Latency: latency}
}

func Failure(kind FailureKind, detail string) Outcome {
	return Outcome{Kind: kind, Detail: detail}
}

func HTTPFailure(status int, detail string) Outcome {
	return Outcome{Kind: FailHTTP, Status: status, Detail: detail}
}

// NodeOutcome pairs an outcome with the node it came from.
type NodeOutcome struct {
	ID      int     `json:"server_id"`
	Outcome Outcome `json:"outcome"`
}

// BatchResult holds one NodeOutcome per requested node, in the same
// order the nodes were requested. A node that timed out or errored still
// has exactly one entry.
type BatchResult []NodeOutcome
