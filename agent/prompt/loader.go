package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/intake.txt
	intakeRaw string

	//go:embed template/dispatch.txt
	dispatchRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Intake   string
	Dispatch string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Embeds are
// compile-time, so this is safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Intake:   strings.TrimSpace(intakeRaw),
		Dispatch: strings.TrimSpace(dispatchRaw),
	}
}
