// Package scenario replays scripted Buffer operations written in YAML and
// checks the state after each step.
//
//	scenarios:
//	  - name: grow after overflow
//	    steps:
//	      - {op: new, n: 4}
//	      - {op: put, bytes: [1, 2], expect: {len: 2, cap: 4}}
//	      - {op: put, bytes: [3, 4, 5], expect: {err: capacity}}
//	      - {op: reserve, n: 1}
//	      - {op: put, bytes: [3, 4, 5], expect: {frozen: [1, 2, 3, 4, 5]}}
package scenario

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/bytebuf"
)

var (
	ErrMismatch  = errors.New("scenario: expectation failed")
	ErrUnknownOp = errors.New("scenario: unknown op")
	ErrBadStep   = errors.New("scenario: invalid step")
)

// ops that pass n to the Buffer as a size
var sizedOps = []string{"new", "reserve", "resize"}

// ErrCapacity is the value of Expect.Err that matches a *bytebuf.CapacityError.
const ErrCapacity = "capacity"

type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one operation. Bytes are plain integers and go through the
// integer-sequence entry points, so out-of-range values wrap like byte().
type Step struct {
	Op     string  `yaml:"op"`
	N      int     `yaml:"n,omitempty"`
	Bytes  []int   `yaml:"bytes,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
	// Result checks the Buffer produced by split or clone.
	Result *Expect `yaml:"result,omitempty"`
}

// Expect lists the checks for one Buffer. Unset fields are not checked.
type Expect struct {
	Len    *int   `yaml:"len,omitempty"`
	Cap    *int   `yaml:"cap,omitempty"`
	Frozen *[]int `yaml:"frozen,omitempty,flow"` // nil is unchecked, empty must freeze to nothing
	Err    string `yaml:"err,omitempty"`
}

// StepResult records the Buffer after a step.
type StepResult struct {
	Op  string
	Len int
	Cap int
	Err error
}

func Parse(data []byte) ([]Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	return f.Scenarios, nil
}

func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Marshal renders scenarios back to YAML.
func Marshal(s []Scenario) ([]byte, error) {
	return yaml.Marshal(File{Scenarios: s})
}

// Run applies the steps to a fresh zero Buffer. It stops at the first
// failed expectation; the returned trace covers every step that ran.
func (s Scenario) Run() ([]StepResult, error) {
	b := &bytebuf.Buffer{}
	trace := make([]StepResult, 0, len(s.Steps))
	for i, st := range s.Steps {
		var (
			err      error
			produced *bytebuf.Buffer
		)
		if st.N < 0 && slices.Contains(sizedOps, st.Op) {
			return trace, fmt.Errorf("%w: %s step %d (%s): negative n %d", ErrBadStep, s.Name, i, st.Op, st.N)
		}
		switch st.Op {
		case "new":
			b = bytebuf.New(st.N)
		case "from":
			b = bytebuf.FromValues(st.Bytes)
		case "put":
			err = bytebuf.PutValues(b, st.Bytes)
		case "reserve":
			b.Reserve(st.N)
		case "resize":
			b.Resize(st.N)
		case "clear":
			b.Clear()
		case "split":
			produced = b.Split()
		case "clone":
			produced = b.Clone()
		case "check":
		default:
			return trace, fmt.Errorf("%w: step %d: %q", ErrUnknownOp, i, st.Op)
		}
		trace = append(trace, StepResult{Op: st.Op, Len: b.Len(), Cap: b.Cap(), Err: err})

		if err != nil && (st.Expect == nil || st.Expect.Err == "") {
			return trace, fmt.Errorf("%w: %s step %d (%s): unexpected error: %v", ErrMismatch, s.Name, i, st.Op, err)
		}
		if st.Expect != nil {
			if cerr := st.Expect.check(b, err); cerr != nil {
				return trace, fmt.Errorf("%w: %s step %d (%s): %v", ErrMismatch, s.Name, i, st.Op, cerr)
			}
		}
		if st.Result != nil {
			if produced == nil {
				return trace, fmt.Errorf("%w: %s step %d (%s): result set on an op that produces no buffer", ErrMismatch, s.Name, i, st.Op)
			}
			if cerr := st.Result.check(produced, nil); cerr != nil {
				return trace, fmt.Errorf("%w: %s step %d (%s) result: %v", ErrMismatch, s.Name, i, st.Op, cerr)
			}
		}
	}
	return trace, nil
}

func (e *Expect) check(b *bytebuf.Buffer, err error) error {
	switch e.Err {
	case "":
	case ErrCapacity:
		if !errors.Is(err, bytebuf.ErrInsufficientCapacity) {
			return fmt.Errorf("err = %v, want capacity error", err)
		}
	default:
		return fmt.Errorf("unknown expected error %q", e.Err)
	}
	if e.Len != nil && b.Len() != *e.Len {
		return fmt.Errorf("len = %d, want %d", b.Len(), *e.Len)
	}
	if e.Cap != nil && b.Cap() != *e.Cap {
		return fmt.Errorf("cap = %d, want %d", b.Cap(), *e.Cap)
	}
	if e.Frozen != nil {
		if got, want := b.Freeze(), bytebuf.Values(*e.Frozen); !slices.Equal(got, want) {
			return fmt.Errorf("frozen = %v, want %v", got, want)
		}
	}
	return nil
}
