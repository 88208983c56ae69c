package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/exec"
	"github.com/tabletalk/tabletalk/internal/explain"
	"github.com/tabletalk/tabletalk/internal/intent"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/service"
	"github.com/tabletalk/tabletalk/internal/validate"
)

// FixtureTime is the fixed clock for scenario runs: timeframe phrases
// resolve relative to it ("last quarter" is 2023 Q1).
var FixtureTime = time.Date(2023, time.April, 15, 12, 0, 0, 0, time.UTC)

// NewFixtureService builds a service over the demo schema and seed
// rows with a fixed clock and sequential request IDs, so scenario
// output is byte-stable.
func NewFixtureService() (*service.Service, error) {
	reg, err := schema.NewRegistry([]schema.Table{
		{Name: "sales", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "product", Type: schema.TypeText},
			{Name: "amount", Type: schema.TypeNumeric},
			{Name: "date", Type: schema.TypeDate},
			{Name: "region", Type: schema.TypeText},
		}},
		{Name: "customers", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "name", Type: schema.TypeText},
			{Name: "email", Type: schema.TypeText},
			{Name: "join_date", Type: schema.TypeDate},
		}},
		{Name: "products", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "name", Type: schema.TypeText},
			{Name: "category", Type: schema.TypeText},
			{Name: "price", Type: schema.TypeNumeric},
		}},
	})
	if err != nil {
		return nil, err
	}

	src := dataset.NewMemory(map[string][]dataset.Row{
		"sales": {
			{"id": 1.0, "product": "Laptop", "amount": 1200.0, "date": "2023-01-15", "region": "North"},
			{"id": 2.0, "product": "Phone", "amount": 800.0, "date": "2023-01-16", "region": "South"},
			{"id": 3.0, "product": "Tablet", "amount": 450.0, "date": "2023-01-17", "region": "East"},
			{"id": 4.0, "product": "Laptop", "amount": 1200.0, "date": "2023-01-18", "region": "West"},
			{"id": 5.0, "product": "Phone", "amount": 800.0, "date": "2023-01-19", "region": "North"},
		},
		"customers": {
			{"id": 1.0, "name": "Alice", "email": "alice@example.com", "join_date": "2022-05-10"},
			{"id": 2.0, "name": "Bob", "email": "bob@example.com", "join_date": "2022-06-15"},
			{"id": 3.0, "name": "Charlie", "email": "charlie@example.com", "join_date": "2022-07-20"},
		},
		"products": {
			{"id": 1.0, "name": "Laptop", "category": "Electronics", "price": 1200.0},
			{"id": 2.0, "name": "Phone", "category": "Electronics", "price": 800.0},
			{"id": 3.0, "name": "Tablet", "category": "Electronics", "price": 450.0},
		},
	})

	ids := make([]string, 64)
	for i := range ids {
		ids[i] = fmt.Sprintf("req-%03d", i+1)
	}
	return service.New(reg, src, service.Options{
		Clock: func() time.Time { return FixtureTime },
		IDs:   service.NewFixedGenerator(ids...),
	})
}

// Outcome collects everything one scenario run observed.
type Outcome struct {
	Explanation explain.Result
	Validation  validate.Result
	Result      *exec.Result // nil when validation failed
}

// Run executes one scenario: explain, validate, then query.
func Run(svc *service.Service, s *Scenario) (*Outcome, error) {
	out := &Outcome{
		Explanation: svc.Explain(s.Query).Explanation,
		Validation:  svc.Validate(s.Query).Validation,
	}

	q, err := svc.Query(s.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	out.Result = q.Result
	return out, nil
}

// Transcript renders a scenario outcome as the golden-file text.
func Transcript(s *Scenario, out *Outcome) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "query: %s\n", s.Query)
	for i, step := range out.Explanation.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	fmt.Fprintf(&b, "valid: %t\n", out.Validation.Valid)
	for _, issue := range out.Validation.Issues {
		fmt.Fprintf(&b, "issue: %s\n", issue)
	}
	if out.Validation.Suggestion != "" {
		fmt.Fprintf(&b, "suggestion: %s\n", out.Validation.Suggestion)
	}

	if res := out.Result; res != nil {
		switch {
		case res.Note != "":
			fmt.Fprintf(&b, "result: %s\n", res.Note)
		case res.Op == intent.OpSum || res.Op == intent.OpAvg:
			fmt.Fprintf(&b, "result: %g over %d row(s)\n", res.Value, res.Count)
		default:
			fmt.Fprintf(&b, "result: %d row(s)\n", res.Count)
		}
	}
	return []byte(b.String())
}
