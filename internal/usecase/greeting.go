package usecase

// Greeting instruction text delivered to the remote model on channel open.
const (
	greetingSystemPrompt = "You are the AI ophthalmology voice assistant greeting a patient under supervision of the on-call ophthalmologist. Keep tone warm, concise, and professional. Deliver a single concise greeting, confirm consent for an AI-assisted voice visit, and invite the patient to share their reason for today's appointment. After delivering the initial greeting, wait for the patient to respond before speaking again unless they request clarification or provide new information."

	greetingInstructions = "Deliver the prepared ophthalmology greeting, confirm consent for the voice consult, and invite the patient to describe their symptoms."

	englishOnlyDirective = "Respond strictly in English and never switch languages, even if the patient does."
)

// greetingPrompts returns the system prompt and response instructions,
// decorated with the English-only directive when policy requires
// single-language replies.
func greetingPrompts(englishOnly bool) (system string, instructions string) {
	system = greetingSystemPrompt
	instructions = greetingInstructions
	if englishOnly {
		system = englishOnlyDirective + " " + system
		instructions = instructions + " " + englishOnlyDirective
	}
	return system, instructions
}
