package generate

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Persona narration: generation progress is presented as a small team of
// employees talking the operator through the run.

type employee struct {
	Name  string
	Emoji string
}

var productManagers = []employee{
	{Name: "Mara", Emoji: "🧭"},
	{Name: "Tomas", Emoji: "📋"},
	{Name: "Ines", Emoji: "🗒️"},
}

var engineers = []employee{
	{Name: "Kofi", Emoji: "🔧"},
	{Name: "Lena", Emoji: "💻"},
	{Name: "Ravi", Emoji: "⚙️"},
}

func randomEmployee(role string) employee {
	switch role {
	case "pm":
		return productManagers[rand.Intn(len(productManagers))]
	default:
		return engineers[rand.Intn(len(engineers))]
	}
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	speakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func printHeader(title string) {
	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("############# %s #############", title)))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func printFailure(format string, args ...interface{}) {
	fmt.Println(failureStyle.Render(fmt.Sprintf(format, args...)))
}

func (e employee) say(format string, args ...interface{}) {
	fmt.Println(speakStyle.Render(fmt.Sprintf("%s %s: %s", e.Emoji, e.Name, fmt.Sprintf(format, args...))))
}

// UserInputFunc supplies a human answer to a clarifying question. Injectable
// so the refiner loop is testable without a terminal.
type UserInputFunc func(prompt string) (string, error)

// TerminalInput prompts on stdout and reads a non-empty line from stdin.
func TerminalInput(prompt string) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s\nyou: ", prompt)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		fmt.Print("you: ")
	}
}
