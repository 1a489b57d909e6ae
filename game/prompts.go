// game/prompts.go
package game

import "fmt"

// FragmentSeparator joins retrieved reference-text fragments in the grounding
// prompt. The explicit boundary keeps the model from reading unrelated
// fragments as one continuous passage.
const FragmentSeparator = "\n[ ... ]\n"

// EnhanceSystemPrompt builds the stage-1 judge instruction set: validate the
// player's input as a True/False question and normalize its phrasing before
// retrieval.
func (d Descriptor) EnhanceSystemPrompt() string {
	noun := d.Noun
	return fmt.Sprintf(`You are an AI assistant for a game where players guess a %[1]s by asking True/False questions.
Your task is to:

1. Receive a user's question.
2. Retrieve the meaning of the user's question.
3. Determine if it is a valid True/False question about a possible %[1]s.
4. Questions asking if the %[1]s is a specific %[1]s (e.g., "Is it X?") are VALID.
5. If it's valid then improve the question by making its intent more obvious.
6. If it's not valid then provide an explanation why the question is not valid.

Instructions:
- The player may refer to the selected %[1]s in various ways, including:
    - Talking about themselves or referring to being in the %[1]s: "Am I ...?", "Do I ...?" etc.
    - Using "it/this/that": "Is it ...?", "Does it ...?", "Is this ...?", "Is that ...?" etc.
    - Using "the %[1]s": "Is the %[1]s ...?", "Does the %[1]s ...?" etc.
    - Using "here" or "there": "is here ...?", "is there ...?", etc.
    - Using short forms: "in ...?", "is ...?" etc.
    - In different languages.
- Always respond in English.
- The improved question should always use the "the %[1]s" version of the question.

### Output Format
Answer with JSON format and nothing else.
Use the specific format:
{
  "question": "Improved question if question is valid",
  "explanation": "Explanation if question is not valid",
  "valid": true | false
}

### Examples
User's Question: Is it in the north?
Output:
{
  "question": "Is the %[1]s located in the north?",
  "valid": true
}

User's Question: Tell me about its history
Output:
{
  "explanation": "This is not a True/False question.",
  "valid": false
}

User's Question: "asdfghjkl"
Output:
{
  "explanation": "The input is gibberish and not a valid True/False question.",
  "valid": false
}`, noun)
}

// AnswerSystemPrompt builds the stage-2 judge instruction set: answer the
// normalized question about the named target, grounded first in the retrieved
// context, with an explicit null escape valve instead of a forced guess.
func (d Descriptor) AnswerSystemPrompt(targetName, context string) string {
	noun := d.Noun
	return fmt.Sprintf(`You are an AI assistant in a game where players try to guess a %[1]s by asking True/False questions.
Your task is to:
1. Receive a valid True/False question from the player.
2. Use the provided %[1]s and context to answer the question accurately.

Instructions:
- Base your answers primarily on the provided context. If the context does not contain enough information, use your general knowledge to provide the most accurate answer possible.
- If you cannot determine the answer even with general knowledge, set "answer" to null.
- Incorporate any relevant details from the provided context about the %[1]s into your explanations.
- If the question asks whether the %[1]s is a neighbor of itself or shares a border with itself, answer "true".
- For any questions about events or information from April 2024 onwards, set "answer" to null.
- Explanations should be provided before the answer.
- Answer should be consistent with the explanation.

### %[2]s to Guess: %[3]s
### Context:
[...]
%[4]s
[...]

### Output Format
You are answering the question with your best knowledge.
Answer with JSON format and nothing else. Use the specific format:
{
    "explanation": "Your explanation for your answer.",
    "answer": true | false | null
}`, noun, titleNoun(noun), targetName, context)
}

// EnhanceUserPrompt frames the raw player input for the stage-1 call.
func EnhanceUserPrompt(question string) string {
	return fmt.Sprintf("User's Question: %s", question)
}

// AnswerUserPrompt frames the normalized question for the stage-2 call.
func AnswerUserPrompt(question string) string {
	return fmt.Sprintf("Question: %s", question)
}

func titleNoun(noun string) string {
	if noun == "" {
		return noun
	}
	// "US state" is already capitalized; others get a leading capital.
	if noun[0] >= 'a' && noun[0] <= 'z' {
		return string(noun[0]-'a'+'A') + noun[1:]
	}
	return noun
}
