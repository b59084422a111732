package grading

import (
	"fmt"
	"strings"
)

const noContextMarker = "No reference material was retrieved for this question. Grade strictly from the rubric and your own domain knowledge."

func examinerSystemPrompt() string {
	return "You are an exacting exam examiner. For each rubric criterion, reason step by step about the answer before assigning " +
		"a score, then score it on the criterion's own point scale (absolute points, never normalized fractions). Penalize vague " +
		"or generic filler that evades the question's specific technical content. Accept answers that diverge from the reference " +
		"material's wording or examples as long as the material does not contradict them. Be blunt in the feedback; do not " +
		"flatter. Respond with a JSON object containing reasoning (string), criteria_scores (array of {criterion, score}), " +
		"total_score (number, the sum of criteria_scores), and feedback (string addressed to the learner)."
}

func arbiterSystemPrompt() string {
	return "You are the arbiter in an exam grading disagreement. Two independent examiners scored the same answer and their " +
		"totals diverge significantly. Re-derive your own score per rubric criterion from scratch; do not average the two " +
		"inputs. Where the examiners disagree, favor whichever assessment most accurately judged conceptual correctness, even " +
		"over literal fidelity to the reference material. Respond with a JSON object containing reasoning (string), " +
		"criteria_scores (array of {criterion, score}), total_score (number), and feedback (string)."
}

func buildExaminerPrompt(question Question, fragments []Fragment, answer Answer) string {
	builder := strings.Builder{}
	writeQuestionSections(&builder, question, fragments)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(answer.Text)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}

func buildArbiterPrompt(question Question, fragments []Fragment, answer Answer, a, b Correction) string {
	builder := strings.Builder{}
	writeQuestionSections(&builder, question, fragments)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(answer.Text)

	builder.WriteString("\n\n## Examiner 1 Assessment\n")
	writeCorrectionSection(&builder, a)
	builder.WriteString("\n\n## Examiner 2 Assessment\n")
	writeCorrectionSection(&builder, b)

	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}

func writeQuestionSections(builder *strings.Builder, question Question, fragments []Fragment) {
	builder.WriteString("# Question\n")
	builder.WriteString(question.Statement)

	builder.WriteString("\n\n## Rubric\n")
	for _, criterion := range question.Rubric {
		fmt.Fprintf(builder, "- %s (max %.1f points): %s\n", criterion.Name, criterion.MaxPoints, criterion.Description)
	}

	builder.WriteString("\n## Reference Material\n")
	if len(fragments) == 0 {
		builder.WriteString(noContextMarker)
		return
	}
	for _, fragment := range fragments {
		fmt.Fprintf(builder, "[%s, %s]\n%s\n\n", fragment.Source, fragment.Locator, fragment.Text)
	}
}

func writeCorrectionSection(builder *strings.Builder, correction Correction) {
	fmt.Fprintf(builder, "Total score: %.2f\n", correction.TotalScore)
	builder.WriteString("Reasoning:\n")
	builder.WriteString(correction.Reasoning)
}
