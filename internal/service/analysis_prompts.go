package service

import "fmt"

func solutionPrompt(title, pattern, difficulty, language, code string) string {
	return fmt.Sprintf(`You are an expert DSA interview coach. Analyze this solution and provide concise, actionable feedback.

**Problem:** %s
**Pattern:** %s
**Difficulty:** %s
**Language:** %s

**Solution Code:**
`+"```"+`%s
%s
`+"```"+`

Provide a brief, encouraging response covering:
1. **What's Good:** One thing done well
2. **Improvement:** Specific suggestions to make the code cleaner or more efficient
3. **Optimizable:** Let user know if this can be optimised further

Keep response under 150 words. Be strict and constructive.`, title, pattern, difficulty, language, language, code)
}

func reflectionPrompt(title, pattern string) string {
	return fmt.Sprintf(`You are a Socratic DSA tutor. Generate ONE thought-provoking reflection question.

**Problem:** %s
**Pattern:** %s

Create a question that helps the learner:
- Connect this problem to similar problems
- Think about when to use this pattern
- Understand the core insight

Be specific to this problem. Keep under 30 words.`, title, pattern)
}

func communicationPrompt(title, transcript string) string {
	return fmt.Sprintf(`You are an interview communication coach. Analyze how this candidate explained their solution.

**Problem:** %s

**Transcript:**
%s

Provide multiple specific tip to improve their explanation for a FAANG interview.
Focus on: clarity, structure, pacing, or technical vocabulary.

Keep under 100 words. Be strict and constructive.`, title, transcript)
}
