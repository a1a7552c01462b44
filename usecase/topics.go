package usecase

import "strings"

// Topic is a lesson track the student can pick after assessment.
type Topic string

const (
	TopicDailyConversations Topic = "daily_conversations"
	TopicGrammar            Topic = "grammar"
	TopicVocabulary         Topic = "vocabulary"
	TopicPronunciation      Topic = "pronunciation"
	TopicWriting            Topic = "writing"
)

// topicAliases maps menu numbers and keywords onto topics. Order matters:
// number keys are checked before word keys so "1" never matches a word.
var topicAliases = []struct {
	key   string
	topic Topic
}{
	{"1", TopicDailyConversations},
	{"2", TopicGrammar},
	{"3", TopicVocabulary},
	{"4", TopicPronunciation},
	{"5", TopicWriting},
	{"daily", TopicDailyConversations},
	{"conversations", TopicDailyConversations},
	{"grammar", TopicGrammar},
	{"vocabulary", TopicVocabulary},
	{"pronunciation", TopicPronunciation},
	{"writing", TopicWriting},
}

// MatchTopic resolves a topic selection message. The second return value
// is false when the message is not a selection.
func MatchTopic(message string) (Topic, bool) {
	selection := strings.ToLower(strings.TrimSpace(message))
	for _, alias := range topicAliases {
		if strings.Contains(selection, alias.key) {
			return alias.topic, true
		}
	}
	return "", false
}

var topicIntros = map[Topic]string{
	TopicPronunciation: `Great choice! Let's work on your pronunciation. 🗣️

I'll help you improve your pronunciation through:
1. Word-by-word practice
2. Sentence rhythm and intonation
3. Common sound pairs

Let's start with some common words that English learners often find challenging.

Please say these words (you can send an audio message):
- 'Think' vs 'Sink'
- 'Three' vs 'Tree'
- 'Ship' vs 'Sheep'

I'll listen and give you feedback on your pronunciation!`,
	TopicDailyConversations: `Let's practice daily conversations! 💬

We'll focus on common situations like:
- Ordering food
- Shopping
- Asking for directions

Let's start with introductions. How would you introduce yourself to someone you just met?`,
	TopicGrammar: `Time to improve your grammar! 📚

We'll work on:
- Present tense
- Past tense
- Question formation

Let's start with a simple exercise. Complete this sentence:
Yesterday, I _____ (go) to the store.`,
	TopicVocabulary: `Let's expand your vocabulary! 📖

We'll learn new words through:
- Themes and categories
- Context and usage
- Word families

Today's theme is 'Food and Cooking'
What are some foods you like to cook?`,
	TopicWriting: `Let's improve your writing skills! ✍️

We'll practice:
- Sentence structure
- Paragraph organization
- Email writing

Let's start with a simple task:
Write 3-4 sentences about your favorite hobby.`,
}

// TopicIntro returns the lesson kickoff message for a topic.
func TopicIntro(topic Topic) string {
	return topicIntros[topic]
}
