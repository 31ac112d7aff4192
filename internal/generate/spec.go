package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/cunhaax/dev-gpt/internal/extract"
	devllm "github.com/cunhaax/dev-gpt/internal/llm"
)

// Specification is the finalized requirement pair the whole pipeline works
// from. Only the Refiner writes it; once both fields are set it is read-only
// for the rest of the run.
type Specification struct {
	Task string
	Test string
}

// Finalized reports whether both fields have been confirmed.
func (s *Specification) Finalized() bool {
	return s.Task != "" && s.Test != ""
}

// ErrRefineRoundsExceeded is returned when a bounded refinement loop runs
// out of rounds before the model signals completion.
var ErrRefineRoundsExceeded = errors.New("specification did not converge within the configured refinement rounds")

// Refiner converges free-text task and test descriptions into a finalized
// Specification through question/answer turns with the model.
type Refiner struct {
	model     llms.Model
	input     UserInputFunc
	maxRounds int // 0 means unbounded, matching the upstream behavior
}

// NewRefiner creates a refiner. maxRounds of 0 keeps the loop unbounded;
// termination then depends entirely on the model emitting a final block.
func NewRefiner(model llms.Model, input UserInputFunc, maxRounds int) *Refiner {
	return &Refiner{model: model, input: input, maxRounds: maxRounds}
}

// Refine drives the task round and then the test round. The draft task, if
// empty, is gathered from the human first.
func (r *Refiner) Refine(ctx context.Context, spec *Specification) error {
	pm := randomEmployee("pm")
	pm.say("👋 Hi, I'm %s, a PM here. Gathering the requirements for our engineers.", pm.Name)

	if err := r.refineTask(ctx, pm, spec); err != nil {
		return err
	}
	if err := r.refineTest(ctx, pm, spec); err != nil {
		return err
	}

	pm.say("👍 Great, I will hand over the following requirements to our engineers:")
	fmt.Printf("Description of the microservice:\n%s\nTest scenario:\n%s\n", spec.Task, spec.Test)
	return nil
}

func (r *Refiner) refineTask(ctx context.Context, pm employee, spec *Specification) error {
	draft := spec.Task
	if draft == "" {
		answer, err := r.input(fmt.Sprintf("%s❓ What should your microservice do?", pm.Emoji))
		if err != nil {
			return err
		}
		draft = answer
	}

	session := devllm.NewSession(r.model, devllm.SessionOptions{
		System: systemTaskIntroduction + systemTaskIteration,
		Label:  "refine-task",
	})

	final, err := r.converge(ctx, pm, session, draft, func(text string) string { return text }, "task-final.txt")
	if err != nil {
		return err
	}
	spec.Task = final
	return nil
}

func (r *Refiner) refineTest(ctx context.Context, pm employee, spec *Specification) error {
	session := devllm.NewSession(r.model, devllm.SessionOptions{
		System: systemTaskIntroduction + systemTestIteration,
		Label:  "refine-test",
	})

	// The test round seeds from the finalized task; every turn travels as a
	// labeled client-response block so the model can tell replies apart from
	// instructions.
	wrap := func(text string) string {
		return fmt.Sprintf("**client-response.txt**\n```\n%s\n```\n", text)
	}

	final, err := r.converge(ctx, pm, session, spec.Task, wrap, "test-final.txt")
	if err != nil {
		return err
	}
	spec.Test = final
	return nil
}

// converge runs the question/answer loop for one field until the model
// returns the final block. A response carrying neither a question nor a
// final block is surfaced verbatim as the next question, so an unparseable
// reply never stalls the loop.
func (r *Refiner) converge(
	ctx context.Context,
	pm employee,
	session *devllm.Session,
	draft string,
	wrap func(string) string,
	finalFile string,
) (string, error) {
	current := draft
	for round := 0; ; round++ {
		if r.maxRounds > 0 && round >= r.maxRounds {
			return "", ErrRefineRoundsExceeded
		}

		fmt.Println("thinking...")
		response, err := session.Chat(ctx, wrap(current))
		if err != nil {
			return "", err
		}

		if final := extract.Block(response, finalFile, false); final != "" {
			return final, nil
		}

		question := extract.Block(response, "prompt.txt", false)
		if question == "" {
			question = response
		}
		answer, err := r.input(fmt.Sprintf("%s❓ %s", pm.Emoji, question))
		if err != nil {
			return "", err
		}
		current = answer
	}
}
