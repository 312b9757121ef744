package application

import (
	"fmt"
	"strings"
)

// ConfirmStep is one stage of a two-step confirmation.
type ConfirmStep int

const (
	StepWarning ConfirmStep = iota + 1
	StepFinal
)

// Confirmation prompts are markdown; the GUI renders them sanitised.
const (
	deleteAllWarningPrompt = "⚠️ **Warning!** You are about to delete **all** of your saved passwords.\n\n" +
		"This cannot be undone. Are you sure you want to continue?"
	deleteAllFinalPrompt = "🚨 **Final confirmation!**\n\n" +
		"Every password will be permanently deleted. Confirm?"
	deleteAccountWarningPrompt = "⚠️ **Warning!** You are about to delete your account and **all** of your saved passwords.\n\n" +
		"This cannot be undone. Are you sure you want to continue?"
	deleteAccountFinalPrompt = "🚨 **Final confirmation!**\n\n" +
		"Your account will be permanently deleted. Confirm?"

	// AccountDeletedNotice is shown, and must be acknowledged, after the
	// account has been deleted.
	AccountDeletedNotice = "Your account has been deleted. You will be taken back to the sign in page."
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func deleteEntryPrompt(serviceName string) string {
	return fmt.Sprintf("Are you sure you want to delete the password for **%s**?", markdownEscaper.Replace(serviceName))
}

// DeleteAllPrompt returns the prompt for a step of the delete-all confirmation.
func DeleteAllPrompt(step ConfirmStep) string {
	if step == StepFinal {
		return deleteAllFinalPrompt
	}
	return deleteAllWarningPrompt
}

// DeleteAccountPrompt returns the prompt for a step of the delete-account
// confirmation.
func DeleteAccountPrompt(step ConfirmStep) string {
	if step == StepFinal {
		return deleteAccountFinalPrompt
	}
	return deleteAccountWarningPrompt
}
