package hook

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/quarry/internal/project"
	"github.com/dshills/quarry/internal/task"
)

func recordingWrapper(name string, trace *[]string) Wrapper {
	return func(next task.Func, proj *project.Context, args []string) (int, error) {
		*trace = append(*trace, name+":pre")
		code, err := next(proj, args)
		*trace = append(*trace, name+":post")
		return code, err
	}
}

func TestComposeNoWrappers(t *testing.T) {
	r := NewRegistry()

	calls := 0
	original := func(proj *project.Context, args []string) (int, error) {
		calls++
		return 7, nil
	}

	composed := r.Compose("compile", original)
	code, err := composed(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 7 {
		t.Errorf("code = %d, want 7", code)
	}
	if calls != 1 {
		t.Errorf("original called %d times, want 1", calls)
	}
}

func TestComposeOrder(t *testing.T) {
	r := NewRegistry()

	var trace []string
	r.Add("compile", recordingWrapper("w1", &trace))
	r.Add("compile", recordingWrapper("w2", &trace))

	original := func(proj *project.Context, args []string) (int, error) {
		trace = append(trace, "original")
		return 0, nil
	}

	composed := r.Compose("compile", original)
	if _, err := composed(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First-registered wrapper is outermost.
	want := []string{"w1:pre", "w2:pre", "original", "w2:post", "w1:post"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestAddIdempotent(t *testing.T) {
	r := NewRegistry()

	var trace []string
	w := recordingWrapper("w", &trace)

	r.Add("compile", w)
	r.Add("compile", w)

	if got := r.Count("compile"); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	original := func(proj *project.Context, args []string) (int, error) {
		trace = append(trace, "original")
		return 0, nil
	}
	if _, err := r.Compose("compile", original)(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"w:pre", "original", "w:post"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestAddNamedIdempotent(t *testing.T) {
	r := NewRegistry()

	var trace []string
	// Distinct Go closures sharing one identity register once.
	r.AddNamed("compile", "plug:1", recordingWrapper("a", &trace))
	r.AddNamed("compile", "plug:1", recordingWrapper("b", &trace))
	r.AddNamed("compile", "plug:2", recordingWrapper("c", &trace))

	if got := r.Count("compile"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestAddDistinctWrappersKept(t *testing.T) {
	r := NewRegistry()

	var trace []string
	r.Add("compile", recordingWrapper("w1", &trace))
	r.Add("compile", recordingWrapper("w2", &trace))

	if got := r.Count("compile"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestWrapperShortCircuit(t *testing.T) {
	r := NewRegistry()

	r.Add("compile", func(next task.Func, proj *project.Context, args []string) (int, error) {
		return 3, nil // never calls through
	})

	originalRan := false
	original := func(proj *project.Context, args []string) (int, error) {
		originalRan = true
		return 0, nil
	}

	code, err := r.Compose("compile", original)(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}
	if originalRan {
		t.Error("original ran despite short-circuiting wrapper")
	}
}

func TestWrapperTransformsError(t *testing.T) {
	r := NewRegistry()

	inner := errors.New("boom")
	r.Add("compile", func(next task.Func, proj *project.Context, args []string) (int, error) {
		code, err := next(proj, args)
		if err != nil {
			return 0, nil // outer layer suppresses the failure
		}
		return code, err
	})

	original := func(proj *project.Context, args []string) (int, error) {
		return 1, inner
	}

	code, err := r.Compose("compile", original)(nil, nil)
	if err != nil {
		t.Errorf("error = %v, want suppressed", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
}

func TestWrapperReplacesArgs(t *testing.T) {
	r := NewRegistry()

	r.Add("compile", func(next task.Func, proj *project.Context, args []string) (int, error) {
		return next(proj, []string{"replaced"})
	})

	var got []string
	original := func(proj *project.Context, args []string) (int, error) {
		got = append(got, args...)
		return 0, nil
	}

	if _, err := r.Compose("compile", original)(nil, []string{"orig"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"replaced"}) {
		t.Errorf("args = %v, want [replaced]", got)
	}
}

func TestTargetsIndependent(t *testing.T) {
	r := NewRegistry()

	var trace []string
	r.Add("compile", recordingWrapper("w", &trace))

	if got := r.Count("test"); got != 0 {
		t.Errorf("Count(test) = %d, want 0", got)
	}

	targets := r.Targets()
	if len(targets) != 1 || targets[0] != "compile" {
		t.Errorf("Targets = %v, want [compile]", targets)
	}
}

func TestAddNilIgnored(t *testing.T) {
	r := NewRegistry()
	r.Add("compile", nil)
	if got := r.Count("compile"); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}
