package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Prompter asks the user for input on a terminal
type Prompter interface {
	Input(label string, validate func(string) error) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, error)
	Confirm(label string) (bool, error)
}

type promptuiPrompter struct{}

func (promptuiPrompter) Input(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: promptui.ValidateFunc(validate),
	}
	return prompt.Run()
}

func (promptuiPrompter) Password(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

func (promptuiPrompter) Select(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return -1, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func (promptuiPrompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
