package prompts

import "learning-path/internal/models"

// categoryHints is the style guidance embedded in prompts, keyed by category.
// models.CategoryGeneral is the fallback for anything unlisted.
var categoryHints = map[models.Category]string{
	models.CategoryTechnical: "Focus each chapter on a single concept. Include runnable code examples, " +
		"hands-on exercises, common pitfalls and best practices drawn from real projects.",
	models.CategoryMath: "Build intuition before formalism. State definitions precisely, work through " +
		"examples step by step, and show where each result is used in algorithms or applications.",
	models.CategoryScience: "Explain underlying principles with real experiments and engineering case " +
		"studies. Use units consistently and connect theory to how systems are designed and tested.",
	models.CategoryHistory: "Present events chronologically with causes and consequences. Reference primary " +
		"sources, contrast perspectives, and relate historical patterns to the present day.",
	models.CategoryLiterature: "Use close reading of short excerpts, discuss craft techniques such as voice, " +
		"structure and imagery, and close each chapter with a writing prompt.",
	models.CategoryBusiness: "Ground concepts in real companies and markets. Include simple numeric examples, " +
		"frameworks for decisions, and the risks a practitioner should weigh.",
	models.CategoryHealth: "Be evidence-based and cautious. Explain physiology plainly, cite accepted clinical " +
		"guidelines, and remind learners that the material is educational, not medical advice.",
	models.CategoryGeneral: "Explain ideas clearly with concrete examples, build from fundamentals to " +
		"applications, and suggest a small activity that reinforces each chapter.",
}

// HintFor returns the style hint for category, falling back to the general hint.
func HintFor(category models.Category) string {
	if hint, ok := categoryHints[category]; ok {
		return hint
	}
	return categoryHints[models.CategoryGeneral]
}
