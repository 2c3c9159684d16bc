package prompt

// Built-in templates. Variables use the {{name}} syntax understood by Render.
const (
	NewsHeadlines = "Summarize the news headlines below for topic: {{topic}}\n\nHeadlines:\n{{headlines}}"

	ForumSystem = "You are a Reddit analysis expert. Use available tools to:\n" +
		"1. Find top 2 posts about '{{topic}}', only after {{since}}.\n" +
		"2. Analyze sentiment.\n" +
		"3. Summarize discussion and overall sentiment."

	ForumUser = "Analyze Reddit posts. Summarize key points, quotes (no usernames), and overall sentiment."

	// ForumAgentPersona is prepended to every forum agent run.
	ForumAgentPersona = "You are a tool-using agent that analyzes Reddit discussion."

	ForumCompress = "Condense the following Reddit analysis into a short, neutral summary " +
		"suitable for a news broadcast. Keep quotes, drop usernames.\n\n{{analysis}}"

	Broadcast = "Create a broadcast news script summarizing the following:\n" +
		"Topics: {{topics}}\n" +
		"News Data: {{news}}\n" +
		"Reddit Data: {{reddit}}\n" +
		"Write in full paragraphs, optimized for speech.\n"
)

// MustRender is Render for the package's own templates, where a missing
// variable is a programming error.
func MustRender(template string, vars map[string]string) string {
	out, err := Render(template, vars)
	if err != nil {
		panic(err)
	}
	return out
}
