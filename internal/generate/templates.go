package generate

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// Prompt templates for every model interaction. Output contracts matter more
// than wording: each template names the labeled block the model must return,
// and extraction depends on that label exactly.

const systemTaskIntroduction = `You are a product manager at a company building AI microservices.
A client described a microservice they want. Your job is to converge that
description into a precise, self-contained requirement the engineers can
implement without further questions.
`

const systemTaskIteration = `Iterate with the client on the DESCRIPTION of the microservice.
If anything is ambiguous or missing, ask exactly one clarifying question and return it as:
**prompt.txt**
` + "```" + `text
<your question>
` + "```" + `
Once the description is complete, return the final requirement as:
**task-final.txt**
` + "```" + `text
<final description>
` + "```" + `
Return exactly one of the two blocks, never both.
`

const systemTestIteration = `Iterate with the client on a single TEST SCENARIO for the microservice.
The scenario must be verifiable with one input and one assertion.
If anything is unclear, ask exactly one clarifying question and return it as:
**prompt.txt**
` + "```" + `text
<your question>
` + "```" + `
Once the scenario is settled, return it as:
**test-final.txt**
` + "```" + `text
<final test scenario>
` + "```" + `
Return exactly one of the two blocks, never both.
`

var templateSystemBase = prompts.NewPromptTemplate(
	`You are a principal engineer implementing a Python microservice.

The microservice to build:
{{.task}}

The test scenario it must pass:
{{.test}}

Always return files as labeled blocks:
**<file name>**
`+"```"+`<tag>
<content>
`+"```"+`
`,
	[]string{"task", "test"},
)

// Conceptual example snippets appended to the system message. Which ones a
// request carries depends on the file being generated.
const (
	exampleGPT = `
Example: calling a language model from inside the microservice is forbidden
unless the task explicitly requires it; the microservice must be
self-contained and deterministic where possible.`

	exampleExecutor = `
Example of the microservice skeleton expected in microservice.py:
a single class exposing one public method that takes a JSON-serializable
dict and returns a JSON-serializable dict, with no global state.`

	exampleDocarray = `
Example of input/output handling: every payload field is documented in the
method docstring, and binary data travels base64-encoded inside the dict.`

	exampleClient = `
Example of how a client calls the deployed microservice: an HTTP POST with a
JSON body to the service endpoint; keep the interface to exactly one route.`
)

var templateGenerateMicroservice = prompts.NewPromptTemplate(
	`Implement {{.file_name}} for the microservice "{{.name}}".

Description:
{{.description}}

It must pass this scenario:
{{.test}}

You may only use these packages plus the Python standard library: {{.packages}}.

Think step by step, then output the complete file as the labeled block
**{{.file_name}}** with a python fence.`,
	[]string{"file_name", "name", "description", "test", "packages"},
)

var templateGenerateTest = prompts.NewPromptTemplate(
	`Here is the current state of the implementation:

{{.code_files_wrapped}}

Write {{.file_name}} for the microservice "{{.name}}": a pytest module
asserting exactly this scenario:
{{.test}}

Output the complete file as the labeled block **{{.file_name}}** with a
python fence.`,
	[]string{"code_files_wrapped", "file_name", "name", "test"},
)

var templateGenerateRequirements = prompts.NewPromptTemplate(
	`Here is the current state of the implementation:

{{.code_files_wrapped}}

Write {{.file_name}} listing every third-party package the code imports,
one pinned requirement per line, nothing else.

Output the complete file as the labeled block **{{.file_name}}** with a
text fence.`,
	[]string{"code_files_wrapped", "file_name"},
)

var templateGenerateDockerfile = prompts.NewPromptTemplate(
	`Here is the current state of the implementation:

{{.code_files_wrapped}}

Write {{.file_name}}: a container build file that installs
requirements.txt, copies the files above, runs the test module during the
build, and starts the microservice as the entrypoint.

Output the complete file as the labeled block **{{.file_name}}** with a
dockerfile fence.`,
	[]string{"code_files_wrapped", "file_name"},
)

var templateGenerateName = prompts.NewPromptTemplate(
	`Suggest a short CamelCase name (letters only) for a microservice doing:
{{.description}}

Output it as:
**name.txt**
`+"```"+`text
<name>
`+"```"+``,
	[]string{"description"},
)

var templateGeneratePossiblePackages = prompts.NewPromptTemplate(
	`The microservice to build:
{{.description}}

Propose up to {{.num_strategies}} alternative sets of Python packages that
could implement it, ordered from most to least promising. Prefer small,
pure-Python, well-maintained packages.

Output a JSON array of arrays of package names as the labeled block
**packages.json** with a json fence.`,
	[]string{"description", "num_strategies"},
)

var templateSummarizeError = prompts.NewPromptTemplate(
	`Here is an error from building or running a microservice:

{{.error}}

Summarize in at most three sentences what went wrong. No fix suggestions.`,
	[]string{"error"},
)

var templateIsDependencyIssue = prompts.NewPromptTemplate(
	`A microservice build failed with:

{{.error}}

Its build file:
`+"```"+`dockerfile
{{.docker_file}}
`+"```"+`

Is this a dependency/environment issue rather than a bug in the source
code? Answer with exactly "yes" or "no".`,
	[]string{"error", "docker_file"},
)

var templateSolveDependencyIssue = prompts.NewPromptTemplate(
	`A microservice build failed. Summary of the error:
{{.summarized_error}}

These are the dependency files:

{{.all_files_string}}

Fix the dependency problem. Output only the files you change, each as a
labeled block (**requirements.txt** or **Dockerfile**) with the right
fence tag. Do not touch any other file.`,
	[]string{"summarized_error", "all_files_string"},
)

var templateSolveCodeIssue = prompts.NewPromptTemplate(
	`The microservice must do:
{{.task_description}}

It must pass this scenario:
{{.test_description}}

The build failed. Summary of the error:
{{.summarized_error}}

Current files:

{{.all_files_string}}

Fix the problem. Output every file you change as a labeled block with its
fence tag. Unchanged files may be omitted.`,
	[]string{"task_description", "test_description", "summarized_error", "all_files_string"},
)

var templateGeneratePlayground = prompts.NewPromptTemplate(
	`Here is a finished microservice:

{{.code_files_wrapped}}

We need a small streamlit playground (app.py) that lets a user try the
microservice "{{.name}}" interactively: one input form, one call to the
deployed endpoint, one result panel. Think about the user flow first.`,
	[]string{"code_files_wrapped", "name"},
)

var templateChainOfThought = prompts.NewPromptTemplate(
	`First think step by step about edge cases in {{.file_name_purpose}}.
Then output the final, complete file as the labeled block
**{{.file_name}}** with a {{.tag_name}} fence. Output no other code.`,
	[]string{"file_name_purpose", "file_name", "tag_name"},
)

// formatTemplate renders a template, dropping vars it does not declare so
// call sites can pass a superset.
func formatTemplate(t prompts.PromptTemplate, vars map[string]any) (string, error) {
	filtered := make(map[string]any, len(vars))
	for _, name := range t.InputVariables {
		if v, ok := vars[name]; ok {
			filtered[name] = v
		}
	}
	out, err := t.Format(filtered)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}
	return out, nil
}
