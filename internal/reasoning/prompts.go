package reasoning

const generatorSystemPrompt = `You are a knowledge-building assistant. You extend a fact base one careful step at a time.`

const candidatePrompt = `Topic: %s
%s
Established facts:
%s

Reasoning paths:
%s
%s
Propose 2-3 NEW propositions about the topic that follow from or extend the established facts and the conversation.
Each proposition must:
- be a single, self-contained sentence
- be specific and concrete (no vague generalities like "it is important")
- not repeat or trivially rephrase an established fact

Respond ONLY with a JSON array of strings. No markdown, no explanation. Example:
["Proposition one.", "Proposition two."]`

const initialPropositionPrompt = `Topic: %s

Conversation:
%s

State exactly ONE foundational fact about the topic that this conversation establishes.
Respond with the single sentence only. No quotes, no explanation.`

const verifierSystemPrompt = `You are a strict fact checker. You judge whether a proposed statement can join an existing fact base.`

const verifyPrompt = `Established facts:
%s

Proposed statement:
%s

Check that the statement:
1. does not contradict any established fact
2. adds new information instead of restating a fact
3. is specific rather than vague

Respond in EXACTLY this format:
VERDICT: VALID|INVALID|UNCERTAIN
CONFIDENCE: <number between 0.0 and 1.0>
REASON: <one short sentence>`

const noFactsPlaceholder = "(no facts yet)"
