// Package pipeline provides HTTP handlers for the staged blog generation
// endpoints: idea generation, idea selection, outline generation, and full
// article generation. Each handler is a stateless passthrough to the
// pipeline use case; all context travels in the request body.
package pipeline

// IdeasResponse carries the parsed idea list returned by /generate_ideas.
type IdeasResponse struct {
	Ideas []string `json:"ideas" example:"5 Hidden Gems in Portugal,Budget Travel in Japan,Van Life Essentials"`
}

// SelectionResponse carries the idea chosen by /select_idea.
type SelectionResponse struct {
	SelectedIdea string `json:"selected_idea" example:"5 Hidden Gems in Portugal"`
}

// OutlineResponse carries the outline text returned by /generate_outline.
type OutlineResponse struct {
	Outline string `json:"outline" example:"1. Introduction\n2. Why Portugal\n..."`
}

// BlogPostResponse carries the article text returned by /generate_blog.
type BlogPostResponse struct {
	BlogPost string `json:"blog_post" example:"<h1>5 Hidden Gems in Portugal</h1>..."`
}
