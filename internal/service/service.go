// Package service is the core facade the outer layer (CLI, or an HTTP
// collaborator) calls with raw query text. It wires the pipeline:
//
//	text → lex.Extract → intent.Resolve → {validate.Check → explain | exec}
//
// A Service is built once at startup and is stateless per request; the
// registry, dataset snapshot, and extractor tables are read-only, so
// concurrent callers need no locking.
package service

import (
	"time"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/exec"
	"github.com/tabletalk/tabletalk/internal/explain"
	"github.com/tabletalk/tabletalk/internal/intent"
	"github.com/tabletalk/tabletalk/internal/lex"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/validate"
)

// Options configures a Service. Zero value means wall clock and
// UUIDv7 request IDs; tests inject both for determinism.
type Options struct {
	Clock func() time.Time
	IDs   IDGenerator
}

// Service serves explain, validate, and query over one schema registry
// and one dataset snapshot.
type Service struct {
	reg *schema.Registry
	src dataset.Source
	ex  *lex.Extractor
	ids IDGenerator
}

// New builds a Service. The extractor's literal index is built here
// from the dataset snapshot, so construction is the only moment the
// service reads data outside a query.
func New(reg *schema.Registry, src dataset.Source, opts Options) (*Service, error) {
	ex, err := lex.NewExtractor(reg, src, opts.Clock)
	if err != nil {
		return nil, err
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Service{reg: reg, src: src, ex: ex, ids: ids}, nil
}

// Registry exposes the schema registry for callers that list tables.
func (s *Service) Registry() *schema.Registry {
	return s.reg
}

// ExplainOutcome is the result of the explain operation.
type ExplainOutcome struct {
	RequestID   string         `json:"request_id"`
	Query       string         `json:"query"`
	Explanation explain.Result `json:"explanation"`
}

// ValidateOutcome is the result of the validate operation.
type ValidateOutcome struct {
	RequestID  string          `json:"request_id"`
	Query      string          `json:"query"`
	Validation validate.Result `json:"validation"`
}

// QueryOutcome is the result of the query operation. Exactly one of
// Result and Validation is set: Validation comes back instead of a
// result when the intent failed validation and execution was refused.
type QueryOutcome struct {
	RequestID  string           `json:"request_id"`
	Query      string           `json:"query"`
	Result     *exec.Result     `json:"result,omitempty"`
	Validation *validate.Result `json:"validation,omitempty"`
}

// resolve runs the never-failing front half of the pipeline.
func (s *Service) resolve(text string) intent.Intent {
	return intent.Resolve(s.reg, s.ex.Extract(text))
}

// Explain renders the reasoning steps for a query without validating
// or executing it.
func (s *Service) Explain(text string) ExplainOutcome {
	return ExplainOutcome{
		RequestID:   s.ids.Generate(),
		Query:       text,
		Explanation: explain.Describe(s.resolve(text)),
	}
}

// Validate checks feasibility without executing.
func (s *Service) Validate(text string) ValidateOutcome {
	return ValidateOutcome{
		RequestID:  s.ids.Generate(),
		Query:      text,
		Validation: validate.Check(s.reg, s.resolve(text)),
	}
}

// Query validates and, when valid, executes. On an invalid intent the
// validation result comes back in place of an execution result. The
// returned error is non-nil only for data-level execution failures
// (exec.IsExecError).
func (s *Service) Query(text string) (QueryOutcome, error) {
	out := QueryOutcome{RequestID: s.ids.Generate(), Query: text}

	in := s.resolve(text)
	result := validate.Check(s.reg, in)
	if !result.Valid {
		out.Validation = &result
		return out, nil
	}

	res, err := exec.Run(s.src, in)
	if err != nil {
		return out, err
	}
	out.Result = &res
	return out, nil
}
