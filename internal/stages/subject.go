package stages

import (
	"context"
	"strings"

	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/state"
	"github.com/FranksOps/slant/internal/textgen"
)

// Subject asks the generator for the news subject of the question. The reply
// is stored verbatim.
type Subject struct {
	Generator textgen.Generator
}

var _ pipeline.Stage = (*Subject)(nil)

func (s *Subject) Name() string        { return "extract_subject" }
func (s *Subject) Reads() []state.Key  { return keys(KeyOriginalUserInput) }
func (s *Subject) Writes() []state.Key { return keys(KeyQuerySubject) }

func (s *Subject) Run(ctx context.Context, st state.State) (state.State, error) {
	question, err := state.Value[string](st, KeyOriginalUserInput)
	if err != nil {
		return st, err
	}
	subject, err := s.Generator.Complete(ctx, textgen.Prompt{
		System: subjectSystemPrompt,
		User:   strings.TrimSpace(question),
	})
	if err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeyQuerySubject: subject}), nil
}
