package cli

import (
	"github.com/AlecAivazis/survey/v2"
)

// confirmAction asks before a destructive action. The prompt is skipped
// when --yes was passed or in JSON mode, where no terminal is expected.
func confirmAction(output *Output, skip bool, message string) (bool, error) {
	if skip || output.IsJSON() {
		return true, nil
	}

	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// promptForResponse collects a pasted multi-line model response.
func promptForResponse() (string, error) {
	var response string
	prompt := &survey.Multiline{
		Message: "Paste the model response:",
		Help:    "Paste the full text the model returned for the rendered prompt, then finish with two newlines",
	}
	if err := survey.AskOne(prompt, &response); err != nil {
		return "", err
	}
	return response, nil
}
