// Package classbuilder computes a class's linearized method resolution
// order and assembles its ClassDetails record: declared bases,
// metaclass, type parameters, and the synthesized-vs-explicit flag
// bits a class-body scan derives from its decorators.
package classbuilder

import (
	"fmt"
	"strings"

	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

// Builder assembles ClassDetails records one class at a time, in
// declaration order, so a class's bases have already been built by the
// time it is processed (an external dependency-ordering pass,
// analogous to a call-graph SCC pass over class bases, is expected to
// have run first for mutually recursive class definitions).
type Builder struct {
	sink *diagnostics.Sink
}

// New creates a Builder that reports MRO failures and decorator
// problems through sink.
func New(sink *diagnostics.Sink) *Builder {
	return &Builder{sink: sink}
}

// BuildMRO computes details.MRO via C3 linearization over its declared
// bases, storing either the linearized chain or a MROError describing
// the first inconsistency found. Bases must already have their own MRO
// computed (object's MRO is itself, the base case).
func (b *Builder) BuildMRO(details *types.ClassDetails) {
	if len(details.Bases) == 0 {
		details.MRO = []*types.ClassDetails{details}
		return
	}

	sequences := make([][]*types.ClassDetails, 0, len(details.Bases)+1)
	for _, base := range details.Bases {
		if base.Details.MRO == nil {
			details.MROError = fmt.Sprintf("base %q has no computed linearization", base.Details.Name)
			return
		}
		sequences = append(sequences, append([]*types.ClassDetails{}, base.Details.MRO...))
	}
	baseOrder := make([]*types.ClassDetails, len(details.Bases))
	for i, base := range details.Bases {
		baseOrder[i] = base.Details
	}
	sequences = append(sequences, baseOrder)

	merged, err := c3Merge(sequences)
	if err != nil {
		details.MROError = err.Error()
		if b.sink != nil {
			b.sink.AddError(diagnostics.MRO001, nil,
				fmt.Sprintf("cannot create a consistent method resolution order for %q: %s", details.Name, err.Error()),
				map[string]any{"class": details.Name})
		}
		return
	}
	details.MRO = append([]*types.ClassDetails{details}, merged...)
}

// c3Merge implements the C3 linearization merge step: repeatedly take
// the head of the first sequence that does not appear in the tail of
// any other sequence, append it to the result, and remove it from
// every sequence. Failure (no valid head exists while sequences remain
// non-empty) means the declared base order is inconsistent.
func c3Merge(sequences [][]*types.ClassDetails) ([]*types.ClassDetails, error) {
	var result []*types.ClassDetails
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}

		var head *types.ClassDetails
		for _, seq := range sequences {
			candidate := seq[0]
			if !inAnyTail(candidate, sequences) {
				head = candidate
				break
			}
		}
		if head == nil {
			names := make([]string, len(sequences))
			for i, seq := range sequences {
				names[i] = seq[0].Name
			}
			return nil, fmt.Errorf("inconsistent base order among %s", strings.Join(names, ", "))
		}

		result = append(result, head)
		for i, seq := range sequences {
			sequences[i] = removeHead(seq, head)
		}
	}
}

func dropEmpty(sequences [][]*types.ClassDetails) [][]*types.ClassDetails {
	out := sequences[:0]
	for _, seq := range sequences {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

func inAnyTail(candidate *types.ClassDetails, sequences [][]*types.ClassDetails) bool {
	for _, seq := range sequences {
		for _, item := range seq[1:] {
			if item == candidate {
				return true
			}
		}
	}
	return false
}

func removeHead(seq []*types.ClassDetails, head *types.ClassDetails) []*types.ClassDetails {
	if len(seq) > 0 && seq[0] == head {
		return seq[1:]
	}
	return seq
}

// DecoratorFlags maps a recognized class decorator name to the
// ClassFlags bit it sets. Decorators not present here (a user-defined
// decorator, for instance) leave Flags unchanged; synthesis still runs
// for @dataclass-style decorators regardless of decorator-list order,
// since this only flips a bit, deferring field collection to the
// synthesis pass run at class finalization.
var DecoratorFlags = map[string]types.ClassFlags{
	"dataclass":         types.ClassFlagDataClass,
	"typing.final":      types.ClassFlagFinal,
	"final":             types.ClassFlagFinal,
	"runtime_checkable": types.ClassFlagProtocol,
}

// ApplyDecorators sets the flag bits any recognized decorator name
// implies. Unrecognized decorator expressions are left for a future
// evaluator pass that can resolve arbitrary callables.
func (b *Builder) ApplyDecorators(details *types.ClassDetails, decoratorNames []string) {
	for _, name := range decoratorNames {
		if bit, ok := DecoratorFlags[name]; ok {
			details.Flags |= bit
		}
	}
}

// IsPseudoGeneric reports whether a class should be treated as
// implicitly generic: it declares no explicit type parameters but at
// least one base is itself a specialization of a generic class (e.g.
// `class IntBox(Box[int]): ...` makes IntBox itself non-generic, but
// `class Box(Generic[T]): ...` with no base specialization is the
// ordinary generic case, not pseudo-generic). Pseudo-generic status
// lets assignability treat the class's own TypeVars as already bound
// rather than awaiting specialization.
func IsPseudoGeneric(details *types.ClassDetails) bool {
	if len(details.TypeParams) > 0 {
		return false
	}
	for _, base := range details.Bases {
		if len(base.TypeArgs) > 0 {
			for _, arg := range base.TypeArgs {
				if _, isVar := arg.(*types.TypeVarType); !isVar {
					return true
				}
			}
		}
	}
	return false
}

// LookupMember finds name on details or, failing that, walks its
// computed MRO (falling back to a direct Bases walk if MRO hasn't been
// computed yet, e.g. while a class's own base-class expressions are
// still being evaluated). Returns the owning ClassDetails alongside the
// Symbol so callers can specialize TypeVars relative to where the
// member was actually declared.
func (b *Builder) LookupMember(details *types.ClassDetails, name string) (*types.Symbol, *types.ClassDetails, bool) {
	return LookupMember(details, name)
}

// LookupMember is the free-function form, usable by packages that only
// need member lookup and not a Builder (internal/assignability,
// internal/evaluator).
func LookupMember(details *types.ClassDetails, name string) (*types.Symbol, *types.ClassDetails, bool) {
	if details == nil {
		return nil, nil, false
	}
	order := details.MRO
	if len(order) == 0 {
		order = []*types.ClassDetails{details}
	}
	for _, ancestor := range order {
		if ancestor.Fields == nil {
			continue
		}
		if sym, ok := ancestor.Fields.Get(name); ok {
			return sym, ancestor, true
		}
	}
	if len(details.MRO) == 0 {
		for _, base := range details.Bases {
			if sym, owner, ok := LookupMember(base.Details, name); ok {
				return sym, owner, true
			}
		}
	}
	return nil, nil, false
}

// BindMethod produces the bound-method view of a function accessed off
// a class or instance: the same FunctionDetails, wrapped so the first
// parameter (self/cls) is hidden from assignability and printing. A
// function decorated @staticmethod is returned unchanged since it has
// no implicit first parameter to hide.
func BindMethod(fn *types.FunctionType, isStaticMethod bool) *types.FunctionType {
	if isStaticMethod {
		return fn
	}
	return &types.FunctionType{
		Details:          fn.Details,
		InferredReturn:   fn.InferredReturn,
		IgnoreFirstParam: true,
	}
}
