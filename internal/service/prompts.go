package service

const synthesizeAgentPrompt = `You design AI agents. Turn the following description into an agent configuration.

Description:
%s

Respond ONLY with a JSON object. No markdown, no explanation. Example:
{"name":"Crypto Guide","description":"Explains cryptocurrency concepts to beginners","skills":["bitcoin","wallets"],"system_prompt":"You are Crypto Guide...","provider":"","model":""}

Leave provider and model empty unless the description asks for a specific one.`

const classifySystemPrompt = `You identify what a conversation is about so related knowledge can be filed together.`

const classifyIntentPrompt = `Conversation:
%s

Previous topic: %s

Name the single most specific entity or concept being discussed.
- Prefer proper nouns and specific entities (e.g. "bitcoin", "tesla_model_3") over generic categories (e.g. "finance", "cars").
- If the conversation has not moved away from the previous topic, answer with the previous topic.
- Also list keywords that would identify this topic in future messages, including translations into other common languages.

Respond in EXACTLY this format:
INTENT: <topic>
KEYWORDS: <keyword1>, <keyword2>, <keyword3>`

const replyKnowledgeSection = `

What you have learned about %s:
%s`

const replyUserSection = `

What you have learned about the user %s:
%s`

const degradedReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."
