// Package fixtures provides reusable test data generators for integration tests.
// This package eliminates test data duplication and ensures consistent test content
// across different test suites.
package fixtures

import (
	"strings"
)

// ArticleOptions configures the generated draft content.
type ArticleOptions struct {
	// Words is the approximate word count (target length, ±10% variance allowed)
	Words int

	// Headings specifies whether to insert markdown section headings,
	// producing content shaped like a staged-generation draft
	Headings bool

	// IncludeEmoji specifies whether to include emoji characters in the content
	IncludeEmoji bool
}

// GenerateArticle generates markdown draft content based on the provided options.
// The generated content is coherent English text suitable for rendering and
// publishing tests.
//
// Example:
//
//	draft := GenerateArticle(ArticleOptions{
//	    Words: 1000,
//	    Headings: true,
//	    IncludeEmoji: false,
//	})
func GenerateArticle(opts ArticleOptions) string {
	return generateDraft(opts.Words, opts.Headings, opts.IncludeEmoji)
}

// GenerateShortArticle generates a draft at the "short" word target (~500 words).
// This is useful for testing publishing of brief content.
//
// Example:
//
//	draft := GenerateShortArticle()
//	// Returns a markdown draft with approximately 500 words
func GenerateShortArticle() string {
	return GenerateArticle(ArticleOptions{
		Words:        500,
		Headings:     true,
		IncludeEmoji: false,
	})
}

// GenerateMediumArticle generates a draft at the "medium" word target (~1000 words).
// This is useful for testing typical publishing scenarios.
//
// Example:
//
//	draft := GenerateMediumArticle()
//	// Returns a markdown draft with approximately 1000 words
func GenerateMediumArticle() string {
	return GenerateArticle(ArticleOptions{
		Words:        1000,
		Headings:     true,
		IncludeEmoji: false,
	})
}

// GenerateLongArticle generates a draft at the "long" word target (~2000 words).
// This is useful for testing publishing of extensive content.
//
// Example:
//
//	draft := GenerateLongArticle()
//	// Returns a markdown draft with approximately 2000 words
func GenerateLongArticle() string {
	return GenerateArticle(ArticleOptions{
		Words:        2000,
		Headings:     true,
		IncludeEmoji: false,
	})
}

// GenerateArticleWithEmoji generates a draft that includes emoji characters.
// This is useful for testing Unicode handling through the rendering and
// sanitization layers.
//
// Example:
//
//	draft := GenerateArticleWithEmoji()
//	// Returns a markdown draft with emoji characters
func GenerateArticleWithEmoji() string {
	return GenerateArticle(ArticleOptions{
		Words:        1000,
		Headings:     true,
		IncludeEmoji: true,
	})
}

// sectionHeadings are cycled through when heading insertion is enabled.
var sectionHeadings = []string{
	"## Why It Matters",
	"## Getting Started",
	"## Under the Hood",
	"## Common Pitfalls",
	"## Looking Ahead",
}

// generateDraft generates coherent markdown article content sized in words.
func generateDraft(targetWords int, headings, includeEmoji bool) string {
	baseSentences := []string{
		"Artificial intelligence technology is rapidly transforming our daily lives.",
		"Machine learning algorithms can learn complex patterns from large datasets.",
		"Deep learning models excel in areas such as image recognition and natural language processing.",
		"Neural networks are computational models inspired by the structure of the human brain.",
		"Data science combines statistics, programming, and domain expertise.",
		"Cloud computing has made large-scale computational resources easily accessible.",
		"Natural language processing is applied to text classification, sentiment analysis, and machine translation.",
		"Computer vision advances enable automatic recognition of images and videos.",
		"Big data analytics provides valuable business insights.",
		"The proliferation of IoT devices has made real-time data collection and analysis crucial.",
		"Edge computing reduces latency by processing data closer to the source.",
		"Quantum computing holds promise for solving problems intractable for classical computers.",
		"Blockchain technology contributes to ensuring trust in distributed systems.",
		"Cybersecurity is a critical challenge in the digital age.",
		"5G technology deployment is enabling ultra-fast, low-latency communications.",
	}

	emojiSentences := []string{
		"Technological innovation brightens our future 🚀✨",
		"AI development opens new possibilities 🤖💡",
		"Data-driven decision making is essential 📊📈",
		"Digital transformation is accelerating 💻🌐",
		"Innovation transforms society 🔬🌟",
	}

	const sentencesPerSection = 8

	var builder strings.Builder
	currentWords := 0
	sentenceIndex := 0
	emojiIndex := 0
	headingIndex := 0
	sinceHeading := 0
	needSpace := false

	if headings {
		const title = "# Generated Draft"
		builder.WriteString(title)
		builder.WriteString("\n\n")
		currentWords = len(strings.Fields(title))
	}

	for {
		var sentence string
		if includeEmoji && currentWords%(targetWords/5+1) < 20 && emojiIndex < len(emojiSentences) {
			sentence = emojiSentences[emojiIndex]
			emojiIndex++
		} else {
			sentence = baseSentences[sentenceIndex%len(baseSentences)]
			sentenceIndex++
		}

		// Calculate the word count if we add this sentence
		sentenceWords := len(strings.Fields(sentence))
		potentialWords := currentWords + sentenceWords

		// If we've reached or exceeded the minimum target (90%), check if we should stop
		if currentWords >= int(float64(targetWords)*0.9) {
			// Stop if adding this sentence would exceed 110% of target
			if potentialWords > int(float64(targetWords)*1.1) {
				break
			}
		}

		// Start a fresh markdown section periodically
		if headings && sinceHeading == sentencesPerSection {
			heading := sectionHeadings[headingIndex%len(sectionHeadings)]
			headingIndex++
			builder.WriteString("\n\n")
			builder.WriteString(heading)
			builder.WriteString("\n\n")
			currentWords += len(strings.Fields(heading))
			sinceHeading = 0
			needSpace = false
		} else if needSpace {
			builder.WriteString(" ")
		}

		builder.WriteString(sentence)
		currentWords += sentenceWords
		sinceHeading++
		needSpace = true

		// Stop if we've reached the target
		if currentWords >= targetWords {
			break
		}
	}

	return builder.String()
}
