package classify

import (
	"strings"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// Upstream type declarations are unreliable for image and embedding models,
// so these name patterns always take precedence over a declared type.
var (
	imageNamePatterns     = []string{"stable-diffusion", "sdxl", "flux", "dall-e", "midjourney", "playground-v2", "ssd-1b", "japanese-stable"}
	embeddingNamePatterns = []string{"embedding", "embed"}
)

// IsImageName reports whether the identifier names a known image model.
func IsImageName(modelID string) bool {
	return containsAny(strings.ToLower(modelID), imageNamePatterns)
}

// IsEmbeddingName reports whether the identifier names an embedding model.
func IsEmbeddingName(modelID string) bool {
	return containsAny(strings.ToLower(modelID), embeddingNamePatterns)
}

type modeRule struct {
	modes     []string
	modelType string
}

var modeRules = []modeRule{
	{[]string{"chat", "completion", "responses"}, catalog.TypeChat},
	{[]string{"image_generation", "image_edit"}, catalog.TypeImage},
	{[]string{"embedding"}, catalog.TypeEmbedding},
	{[]string{"audio_transcription", "audio_speech"}, catalog.TypeAudio},
	{[]string{"video_generation"}, catalog.TypeVideo},
	{[]string{"rerank"}, catalog.TypeRerank},
}

// TypeFromMode maps a declared mode onto a model type. Unrecognized modes
// pass through verbatim; an empty mode means chat.
func TypeFromMode(mode string) string {
	if mode == "" {
		return catalog.TypeChat
	}
	for _, rule := range modeRules {
		for _, m := range rule.modes {
			if m == mode {
				return rule.modelType
			}
		}
	}
	return mode
}

// TypeFromNameOrMode applies the name overrides first and then the mode table.
func TypeFromNameOrMode(modelID, mode string) string {
	switch {
	case IsImageName(modelID):
		return catalog.TypeImage
	case IsEmbeddingName(modelID):
		return catalog.TypeEmbedding
	default:
		return TypeFromMode(mode)
	}
}
